package model

type InventoryItem struct {
	ID            int64  `json:"id"`
	ParticipantID int64  `json:"participant_id"`
	RewardName    string `json:"reward_name"`
	Icon          string `json:"icon"`
	Count         int    `json:"count"`
}
