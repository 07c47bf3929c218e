package model

import "time"

const (
	HistoryChoreCredit    = "CHORE_CREDIT"
	HistoryRewardDebit    = "REWARD_DEBIT"
	HistoryRewardConsumed = "REWARD_CONSUMED"
)

// HistoryEntry is append-only; rows are never edited after creation.
// Amount is the signed point delta, zero for consumption events.
type HistoryEntry struct {
	ID            int64     `json:"id"`
	ParticipantID int64     `json:"participant_id"`
	Kind          string    `json:"kind"`
	Name          string    `json:"name"`
	Amount        int       `json:"amount"`
	Icon          string    `json:"icon"`
	CreatedAt     time.Time `json:"created_at"`
}
