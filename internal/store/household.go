package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/rfosterdev/chorebank/internal/model"
)

type HouseholdStore struct {
	db *sql.DB
}

func NewHouseholdStore(db *sql.DB) *HouseholdStore {
	return &HouseholdStore{db: db}
}

func scanHousehold(scanner interface{ Scan(...any) error }) (*model.Household, error) {
	var h model.Household
	err := scanner.Scan(&h.ID, &h.Name, &h.JoinCode, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

const householdCols = `id, name, join_code, created_at, updated_at`

// Create inserts a household with a fresh join code.
func (s *HouseholdStore) Create(name string) (*model.Household, error) {
	result, err := s.db.Exec(
		`INSERT INTO households (name, join_code) VALUES (?, ?)`,
		name, uuid.NewString(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert household: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *HouseholdStore) GetByID(id int64) (*model.Household, error) {
	row := s.db.QueryRow(`SELECT `+householdCols+` FROM households WHERE id = ?`, id)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	return h, nil
}

func (s *HouseholdStore) GetByJoinCode(code string) (*model.Household, error) {
	row := s.db.QueryRow(`SELECT `+householdCols+` FROM households WHERE join_code = ?`, code)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household by join code: %w", err)
	}
	return h, nil
}
