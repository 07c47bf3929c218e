package redemption

import (
	"log/slog"

	"github.com/rfosterdev/chorebank/internal/auth"
	"github.com/rfosterdev/chorebank/internal/model"
	"github.com/rfosterdev/chorebank/internal/store"
)

// Engine governs reward purchase (balance to inventory) and reward use
// (inventory to history).
type Engine struct {
	ledger       *store.LedgerStore
	rewards      *store.RewardStore
	participants *store.ParticipantStore
	logger       *slog.Logger
}

func NewEngine(ledger *store.LedgerStore, rewards *store.RewardStore, participants *store.ParticipantStore, logger *slog.Logger) *Engine {
	return &Engine{
		ledger:       ledger,
		rewards:      rewards,
		participants: participants,
		logger:       logger,
	}
}

// Redeem reads the reward's current cost at call time and debits it. Costs
// are deliberately not snapshotted: a price change applies to the very next
// attempt, unlike chore submissions which freeze their terms.
func (e *Engine) Redeem(caller auth.Identity, participantID, rewardID int64) (*model.InventoryItem, *model.HistoryEntry, error) {
	if !caller.IsGuardian() && caller.ParticipantID != participantID {
		return nil, nil, auth.ErrForbidden
	}

	target, err := e.participants.GetByID(participantID)
	if err != nil {
		return nil, nil, err
	}
	if target == nil {
		return nil, nil, store.ErrNotFound
	}
	if target.HouseholdID != caller.HouseholdID {
		return nil, nil, auth.ErrForbidden
	}

	reward, err := e.rewards.GetByID(rewardID)
	if err != nil {
		return nil, nil, err
	}
	if reward == nil {
		return nil, nil, store.ErrNotFound
	}
	// The definition must belong to the caller's household too; a foreign
	// reward id reads as not found rather than confirming it exists.
	rewardOwner, err := e.participants.GetByID(reward.ParticipantID)
	if err != nil {
		return nil, nil, err
	}
	if rewardOwner == nil || rewardOwner.HouseholdID != caller.HouseholdID {
		return nil, nil, store.ErrNotFound
	}

	item, entry, err := e.ledger.DebitForRedemption(participantID, model.RewardSnapshot{
		Name: reward.Name,
		Cost: reward.Cost,
		Icon: reward.Icon,
	})
	if err != nil {
		return nil, nil, err
	}

	e.logger.Info("reward redeemed",
		"participant_id", participantID,
		"reward", reward.Name,
		"cost", reward.Cost,
	)
	return item, entry, nil
}

// Consume uses up one unit of a redeemed reward.
func (e *Engine) Consume(caller auth.Identity, itemID int64) (*model.HistoryEntry, error) {
	item, err := e.ledger.GetInventoryItem(itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, store.ErrNotFound
	}

	if !caller.IsGuardian() && caller.ParticipantID != item.ParticipantID {
		return nil, auth.ErrForbidden
	}
	owner, err := e.participants.GetByID(item.ParticipantID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, store.ErrNotFound
	}
	if owner.HouseholdID != caller.HouseholdID {
		return nil, auth.ErrForbidden
	}

	return e.ledger.ConsumeInventoryItem(itemID)
}
