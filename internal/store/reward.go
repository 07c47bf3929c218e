package store

import (
	"database/sql"
	"fmt"

	"github.com/rfosterdev/chorebank/internal/model"
)

type RewardStore struct {
	db *sql.DB
}

func NewRewardStore(db *sql.DB) *RewardStore {
	return &RewardStore{db: db}
}

func scanReward(scanner interface{ Scan(...any) error }) (*model.Reward, error) {
	var r model.Reward
	err := scanner.Scan(&r.ID, &r.ParticipantID, &r.Name, &r.Cost, &r.Icon, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

const rewardCols = `id, participant_id, name, cost, icon, created_at`

func (s *RewardStore) Create(participantID int64, name string, cost int, icon string) (*model.Reward, error) {
	result, err := s.db.Exec(
		`INSERT INTO rewards (participant_id, name, cost, icon) VALUES (?, ?, ?, ?)`,
		participantID, name, cost, icon,
	)
	if err != nil {
		return nil, fmt.Errorf("insert reward: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *RewardStore) GetByID(id int64) (*model.Reward, error) {
	row := s.db.QueryRow(`SELECT `+rewardCols+` FROM rewards WHERE id = ?`, id)
	r, err := scanReward(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reward: %w", err)
	}
	return r, nil
}

func (s *RewardStore) ListByParticipant(participantID int64) ([]model.Reward, error) {
	rows, err := s.db.Query(
		`SELECT `+rewardCols+` FROM rewards WHERE participant_id = ? ORDER BY name ASC`,
		participantID,
	)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	defer rows.Close()

	var rewards []model.Reward
	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		rewards = append(rewards, *r)
	}
	return rewards, rows.Err()
}

func (s *RewardStore) Delete(id int64) error {
	result, err := s.db.Exec(`DELETE FROM rewards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reward: %w", err)
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

// DeleteByNameAcrossChildren mirrors the chore batch-delete policy for reward
// definitions shared across the household's children.
func (s *RewardStore) DeleteByNameAcrossChildren(householdID int64, name string) ([]int64, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT r.participant_id
		 FROM rewards r
		 JOIN participants p ON p.id = r.participant_id
		 WHERE r.name = ? AND p.household_id = ? AND p.role = 'child'`,
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
		`DELETE FROM rewards WHERE name = ? AND participant_id IN (
			SELECT id FROM participants WHERE household_id = ? AND role = 'child'
		)`,
		name, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("delete rewards by name: %w", err)
	}
	return affected, nil
}
