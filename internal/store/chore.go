package store

import (
	"database/sql"
	"fmt"

	"github.com/rfosterdev/chorebank/internal/model"
)

type ChoreStore struct {
	db *sql.DB
}

func NewChoreStore(db *sql.DB) *ChoreStore {
	return &ChoreStore{db: db}
}

func scanChore(scanner interface{ Scan(...any) error }) (*model.Chore, error) {
	var c model.Chore
	err := scanner.Scan(&c.ID, &c.ParticipantID, &c.Name, &c.Points, &c.Icon, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const choreCols = `id, participant_id, name, points, icon, created_at`

func (s *ChoreStore) Create(participantID int64, name string, points int, icon string) (*model.Chore, error) {
	result, err := s.db.Exec(
		`INSERT INTO chores (participant_id, name, points, icon) VALUES (?, ?, ?, ?)`,
		participantID, name, points, icon,
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ChoreStore) GetByID(id int64) (*model.Chore, error) {
	row := s.db.QueryRow(`SELECT `+choreCols+` FROM chores WHERE id = ?`, id)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return c, nil
}

func (s *ChoreStore) ListByParticipant(participantID int64) ([]model.Chore, error) {
	rows, err := s.db.Query(
		`SELECT `+choreCols+` FROM chores WHERE participant_id = ? ORDER BY name ASC`,
		participantID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	defer rows.Close()

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

func (s *ChoreStore) Delete(id int64) error {
	result, err := s.db.Exec(`DELETE FROM chores WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete chore: %w", err)
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

// DeleteByNameAcrossChildren removes every chore with the given name assigned
// to any child of the household. Batch-delete policy for definitions shared
// across siblings; returns the affected participant ids for notification.
func (s *ChoreStore) DeleteByNameAcrossChildren(householdID int64, name string) ([]int64, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT c.participant_id
		 FROM chores c
		 JOIN participants p ON p.id = c.participant_id
		 WHERE c.name = ? AND p.household_id = ? AND p.role = 'child'`,
		name, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list affected participants: %w", err)
	}
	defer rows.Close()

	var affected []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan participant id: %w", err)
		}
		affected = append(affected, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}

	_, err = s.db.Exec(
		`DELETE FROM chores WHERE name = ? AND participant_id IN (
			SELECT id FROM participants WHERE household_id = ? AND role = 'child'
		)`,
		name, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("delete chores by name: %w", err)
	}
	return affected, nil
}
