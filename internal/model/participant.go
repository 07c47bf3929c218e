package model

import "time"

const (
	RoleGuardian = "guardian"
	RoleChild    = "child"
)

type Participant struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	HouseholdID int64      `json:"household_id"`
	GuardianID  *int64     `json:"guardian_id,omitempty"`
	Balance     int        `json:"balance"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	Gender      string     `json:"gender,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ParticipantDetail is the nested shape returned by the participant read
// endpoints: the participant plus their catalog and redeemed inventory.
type ParticipantDetail struct {
	Participant
	Chores    []Chore         `json:"chores"`
	Rewards   []Reward        `json:"rewards"`
	Inventory []InventoryItem `json:"inventory"`
}
