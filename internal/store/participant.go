package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rfosterdev/chorebank/internal/model"
)

type ParticipantStore struct {
	db *sql.DB
}

func NewParticipantStore(db *sql.DB) *ParticipantStore {
	return &ParticipantStore{db: db}
}

func scanParticipant(scanner interface{ Scan(...any) error }) (*model.Participant, error) {
	var p model.Participant
	var guardianID sql.NullInt64
	var birthDate sql.NullTime
	var gender sql.NullString

	err := scanner.Scan(
		&p.ID, &p.Username, &p.Name, &p.Role, &p.HouseholdID, &guardianID,
		&p.Balance, &birthDate, &gender, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if guardianID.Valid {
		p.GuardianID = &guardianID.Int64
	}
	if birthDate.Valid {
		p.BirthDate = &birthDate.Time
	}
	if gender.Valid {
		p.Gender = gender.String
	}
	return &p, nil
}

const participantCols = `id, username, name, role, household_id, guardian_id, balance, birth_date, gender, created_at, updated_at`

func (s *ParticipantStore) Create(username, passwordHash, name, role string, householdID int64, guardianID *int64) (*model.Participant, error) {
	var gID sql.NullInt64
	if guardianID != nil {
		gID = sql.NullInt64{Int64: *guardianID, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO participants (username, password_hash, name, role, household_id, guardian_id) VALUES (?, ?, ?, ?, ?, ?)`,
		username, passwordHash, name, role, householdID, gID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert participant: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ParticipantStore) GetByID(id int64) (*model.Participant, error) {
	row := s.db.QueryRow(`SELECT `+participantCols+` FROM participants WHERE id = ?`, id)
	p, err := scanParticipant(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get participant: %w", err)
	}
	return p, nil
}

func (s *ParticipantStore) GetByUsername(username string) (*model.Participant, error) {
	row := s.db.QueryRow(`SELECT `+participantCols+` FROM participants WHERE username = ?`, username)
	p, err := scanParticipant(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get participant by username: %w", err)
	}
	return p, nil
}

// GetPasswordHash returns the stored hash for a username, separate from the
// model so hashes never travel with participant records.
func (s *ParticipantStore) GetPasswordHash(username string) (string, error) {
	var hash string
	err := s.db.QueryRow(`SELECT password_hash FROM participants WHERE username = ?`, username).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get password hash: %w", err)
	}
	return hash, nil
}

func (s *ParticipantStore) ListByHousehold(householdID int64) ([]model.Participant, error) {
	rows, err := s.db.Query(
		`SELECT `+participantCols+` FROM participants WHERE household_id = ? ORDER BY created_at ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var participants []model.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, *p)
	}
	return participants, rows.Err()
}

func (s *ParticipantStore) UpdateProfile(id int64, name string, birthDate *time.Time, gender string) (*model.Participant, error) {
	var bd sql.NullTime
	if birthDate != nil {
		bd = sql.NullTime{Time: birthDate.UTC(), Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE participants SET name = ?, birth_date = ?, gender = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, bd, gender, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update participant: %w", err)
	}
	return s.GetByID(id)
}

func (s *ParticipantStore) UpdatePassword(id int64, passwordHash string) error {
	result, err := s.db.Exec(
		`UPDATE participants SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a participant; chores, rewards, pending actions, inventory
// and history go with it via foreign-key cascade.
func (s *ParticipantStore) Delete(id int64) error {
	result, err := s.db.Exec(`DELETE FROM participants WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
