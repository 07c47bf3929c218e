package model

import "time"

// PendingAction is a chore submission awaiting guardian review. Approval and
// rejection are both terminal and delete the row; a fresh submission always
// creates a new record.
type PendingAction struct {
	ID              int64     `json:"id"`
	ParticipantID   int64     `json:"participant_id"`
	ParticipantName string    `json:"participant_name,omitempty"`
	ChoreName       string    `json:"chore_name"`
	Points          int       `json:"points"`
	Icon            string    `json:"icon"`
	SubmittedAt     time.Time `json:"submitted_at"`
}
