package store

import (
	"database/sql"
	"fmt"

	"github.com/rfosterdev/chorebank/internal/model"
)

type PendingStore struct {
	db *sql.DB
}

func NewPendingStore(db *sql.DB) *PendingStore {
	return &PendingStore{db: db}
}

func scanPending(scanner interface{ Scan(...any) error }) (*model.PendingAction, error) {
	var a model.PendingAction
	err := scanner.Scan(&a.ID, &a.ParticipantID, &a.ChoreName, &a.Points, &a.Icon, &a.SubmittedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

const pendingCols = `id, participant_id, chore_name, points, icon, submitted_at`

// Create records a submission with the chore fields snapshotted by the caller.
func (s *PendingStore) Create(participantID int64, snap model.ChoreSnapshot) (*model.PendingAction, error) {
	result, err := s.db.Exec(
		`INSERT INTO pending_actions (participant_id, chore_name, points, icon) VALUES (?, ?, ?, ?)`,
		participantID, snap.Name, snap.Points, snap.Icon,
	)
	if err != nil {
		return nil, fmt.Errorf("insert pending action: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *PendingStore) GetByID(id int64) (*model.PendingAction, error) {
	row := s.db.QueryRow(`SELECT `+pendingCols+` FROM pending_actions WHERE id = ?`, id)
	a, err := scanPending(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pending action: %w", err)
	}
	return a, nil
}

// ListByHousehold returns the household's approval queue, oldest first, with
// each submitter's display name joined in.
func (s *PendingStore) ListByHousehold(householdID int64) ([]model.PendingAction, error) {
	rows, err := s.db.Query(
		`SELECT a.id, a.participant_id, a.chore_name, a.points, a.icon, a.submitted_at, p.name
		 FROM pending_actions a
		 JOIN participants p ON p.id = a.participant_id
		 WHERE p.household_id = ?
		 ORDER BY a.submitted_at ASC, a.id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending actions: %w", err)
	}
	defer rows.Close()

	var actions []model.PendingAction
	for rows.Next() {
		var a model.PendingAction
		if err := rows.Scan(&a.ID, &a.ParticipantID, &a.ChoreName, &a.Points, &a.Icon, &a.SubmittedAt, &a.ParticipantName); err != nil {
			return nil, fmt.Errorf("scan pending action: %w", err)
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}
