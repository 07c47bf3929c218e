package model

import "time"

type Reward struct {
	ID            int64     `json:"id"`
	ParticipantID int64     `json:"participant_id"`
	Name          string    `json:"name"`
	Cost          int       `json:"cost"`
	Icon          string    `json:"icon"`
	CreatedAt     time.Time `json:"created_at"`
}

// RewardSnapshot carries the reward fields a redemption debits. Unlike chore
// submissions the cost is read at redemption time, so a price change applies
// to the next attempt immediately.
type RewardSnapshot struct {
	Name string
	Cost int
	Icon string
}
