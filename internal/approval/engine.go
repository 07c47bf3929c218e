package approval

import (
	"database/sql"
	"log/slog"

	"github.com/rfosterdev/chorebank/internal/auth"
	"github.com/rfosterdev/chorebank/internal/model"
	"github.com/rfosterdev/chorebank/internal/store"
)

// Engine drives the chore submission workflow: SUBMITTED is the only live
// state, approve and reject are terminal and destroy the pending row. There
// is no resubmit; a fresh submission creates a new record.
type Engine struct {
	ledger       *store.LedgerStore
	pending      *store.PendingStore
	chores       *store.ChoreStore
	participants *store.ParticipantStore
	logger       *slog.Logger
}

func NewEngine(ledger *store.LedgerStore, pending *store.PendingStore, chores *store.ChoreStore, participants *store.ParticipantStore, logger *slog.Logger) *Engine {
	return &Engine{
		ledger:       ledger,
		pending:      pending,
		chores:       chores,
		participants: participants,
		logger:       logger,
	}
}

// Submit snapshots the chore's current name, points and icon into a new
// pending action. Later edits or deletes of the chore cannot change what an
// approval of this submission pays out.
func (e *Engine) Submit(caller auth.Identity, participantID, choreID int64) (*model.PendingAction, error) {
	if !caller.IsGuardian() && caller.ParticipantID != participantID {
		return nil, auth.ErrForbidden
	}
	if err := e.requireSameHousehold(caller, participantID); err != nil {
		return nil, err
	}

	chore, err := e.loadChoreScoped(caller, choreID)
	if err != nil {
		return nil, err
	}

	return e.pending.Create(participantID, model.ChoreSnapshot{
		Name:   chore.Name,
		Points: chore.Points,
		Icon:   chore.Icon,
	})
}

// Approve resolves a pending action: one transaction deletes the row and
// credits the snapshotted points. A concurrent approve or reject wins the
// delete, leaving this call with ErrNotFound and no credit applied.
func (e *Engine) Approve(caller auth.Identity, pendingID int64) (*model.PendingAction, error) {
	action, err := e.loadScoped(caller, pendingID)
	if err != nil {
		return nil, err
	}

	err = e.ledger.WithTx(func(tx *sql.Tx) error {
		if err := e.ledger.DeletePendingTx(tx, pendingID); err != nil {
			return err
		}
		_, err := e.ledger.CreditApprovedChoreTx(tx, action.ParticipantID, model.ChoreSnapshot{
			Name:   action.ChoreName,
			Points: action.Points,
			Icon:   action.Icon,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("chore approved",
		"pending_id", pendingID,
		"participant_id", action.ParticipantID,
		"points", action.Points,
	)
	return action, nil
}

// Reject deletes the pending action with no balance effect. Already-resolved
// actions report ErrNotFound, same as approve.
func (e *Engine) Reject(caller auth.Identity, pendingID int64) (*model.PendingAction, error) {
	action, err := e.loadScoped(caller, pendingID)
	if err != nil {
		return nil, err
	}

	err = e.ledger.WithTx(func(tx *sql.Tx) error {
		return e.ledger.DeletePendingTx(tx, pendingID)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("chore rejected", "pending_id", pendingID, "participant_id", action.ParticipantID)
	return action, nil
}

// CompleteDirect credits a chore's current values without a submission ever
// existing. A guardian shortcut, not a workflow transition.
func (e *Engine) CompleteDirect(caller auth.Identity, participantID, choreID int64) (*model.HistoryEntry, error) {
	if err := e.requireSameHousehold(caller, participantID); err != nil {
		return nil, err
	}

	chore, err := e.loadChoreScoped(caller, choreID)
	if err != nil {
		return nil, err
	}

	return e.ledger.CreditApprovedChore(participantID, model.ChoreSnapshot{
		Name:   chore.Name,
		Points: chore.Points,
		Icon:   chore.Icon,
	})
}

// loadChoreScoped fetches a chore definition and verifies its owner belongs
// to the caller's household. A foreign chore reads as not found rather than
// confirming it exists.
func (e *Engine) loadChoreScoped(caller auth.Identity, choreID int64) (*model.Chore, error) {
	chore, err := e.chores.GetByID(choreID)
	if err != nil {
		return nil, err
	}
	if chore == nil {
		return nil, store.ErrNotFound
	}
	owner, err := e.participants.GetByID(chore.ParticipantID)
	if err != nil {
		return nil, err
	}
	if owner == nil || owner.HouseholdID != caller.HouseholdID {
		return nil, store.ErrNotFound
	}
	return chore, nil
}

// loadScoped fetches a pending action and verifies its owner belongs to the
// caller's household.
func (e *Engine) loadScoped(caller auth.Identity, pendingID int64) (*model.PendingAction, error) {
	action, err := e.pending.GetByID(pendingID)
	if err != nil {
		return nil, err
	}
	if action == nil {
		return nil, store.ErrNotFound
	}

	owner, err := e.participants.GetByID(action.ParticipantID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, store.ErrNotFound
	}
	if owner.HouseholdID != caller.HouseholdID {
		return nil, auth.ErrForbidden
	}
	return action, nil
}

func (e *Engine) requireSameHousehold(caller auth.Identity, participantID int64) error {
	target, err := e.participants.GetByID(participantID)
	if err != nil {
		return err
	}
	if target == nil {
		return store.ErrNotFound
	}
	if target.HouseholdID != caller.HouseholdID {
		return auth.ErrForbidden
	}
	return nil
}
