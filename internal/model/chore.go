package model

import "time"

type Chore struct {
	ID            int64     `json:"id"`
	ParticipantID int64     `json:"participant_id"`
	Name          string    `json:"name"`
	Points        int       `json:"points"`
	Icon          string    `json:"icon"`
	CreatedAt     time.Time `json:"created_at"`
}

// ChoreSnapshot is a copy of a chore's paying fields frozen at submission
// time. Approvals credit the snapshot, not the live definition.
type ChoreSnapshot struct {
	Name   string
	Points int
	Icon   string
}
