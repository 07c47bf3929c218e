package approval

import (
	"database/sql"
	"errors"
	"log/slog"
	"testing"

	"github.com/rfosterdev/chorebank/internal/auth"
	"github.com/rfosterdev/chorebank/internal/database"
	"github.com/rfosterdev/chorebank/internal/model"
	"github.com/rfosterdev/chorebank/internal/store"
)

type testEnv struct {
	db           *sql.DB
	engine       *Engine
	participants *store.ParticipantStore
	chores       *store.ChoreStore
	ledger       *store.LedgerStore
	pending      *store.PendingStore

	guardian auth.Identity
	child    auth.Identity
	childID  int64
}

func setupEngineTest(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	households := store.NewHouseholdStore(db)
	participants := store.NewParticipantStore(db)
	chores := store.NewChoreStore(db)
	pending := store.NewPendingStore(db)
	ledger := store.NewLedgerStore(db)

	household, err := households.Create("test household")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	guardian, err := participants.Create("guardian", "hash", "Guardian", model.RoleGuardian, household.ID, nil)
	if err != nil {
		t.Fatalf("create guardian: %v", err)
	}
	child, err := participants.Create("child", "hash", "Child", model.RoleChild, household.ID, &guardian.ID)
	if err != nil {
		t.Fatalf("create child: %v", err)
	}

	return &testEnv{
		db:           db,
		engine:       NewEngine(ledger, pending, chores, participants, slog.Default()),
		participants: participants,
		chores:       chores,
		ledger:       ledger,
		pending:      pending,
		guardian: auth.Identity{
			ParticipantID: guardian.ID,
			HouseholdID:   household.ID,
			Role:          model.RoleGuardian,
			Name:          guardian.Name,
		},
		child: auth.Identity{
			ParticipantID: child.ID,
			HouseholdID:   household.ID,
			Role:          model.RoleChild,
			Name:          child.Name,
		},
		childID: child.ID,
	}
}

func (env *testEnv) balance(t *testing.T, participantID int64) int {
	t.Helper()
	var balance int
	if err := env.db.QueryRow(`SELECT balance FROM participants WHERE id = ?`, participantID).Scan(&balance); err != nil {
		t.Fatalf("get balance: %v", err)
	}
	return balance
}

func TestSubmitThenApprove(t *testing.T) {
	env := setupEngineTest(t)

	chore, _ := env.chores.Create(env.childID, "Dishes", 10, "🍽️")

	action, err := env.engine.Submit(env.child, env.childID, chore.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if action.ChoreName != "Dishes" || action.Points != 10 {
		t.Fatalf("snapshot = %q/%d, want Dishes/10", action.ChoreName, action.Points)
	}

	if _, err := env.engine.Approve(env.guardian, action.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got := env.balance(t, env.childID); got != 10 {
		t.Errorf("balance = %d, want 10", got)
	}

	entries, _ := env.ledger.ListHistory(env.childID, 0)
	if len(entries) != 1 || entries[0].Kind != model.HistoryChoreCredit {
		t.Fatalf("expected one CHORE_CREDIT entry, got %+v", entries)
	}
}

func TestApproveCreditsSnapshotNotCurrentChore(t *testing.T) {
	env := setupEngineTest(t)

	chore, _ := env.chores.Create(env.childID, "Dishes", 10, "")
	action, err := env.engine.Submit(env.child, env.childID, chore.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Delete the chore definition after submission; the approval must still
	// pay the snapshotted 10 points.
	if err := env.chores.Delete(chore.ID); err != nil {
		t.Fatalf("delete chore: %v", err)
	}

	if _, err := env.engine.Approve(env.guardian, action.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got := env.balance(t, env.childID); got != 10 {
		t.Errorf("balance = %d, want 10", got)
	}
}

func TestApproveIgnoresLaterPointEdits(t *testing.T) {
	env := setupEngineTest(t)

	chore, _ := env.chores.Create(env.childID, "Dishes", 10, "")
	action, err := env.engine.Submit(env.child, env.childID, chore.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Reprice the chore mid-review; the approval pays the submitted terms
	if _, err := env.db.Exec(`UPDATE chores SET points = 100 WHERE id = ?`, chore.ID); err != nil {
		t.Fatalf("reprice chore: %v", err)
	}

	if _, err := env.engine.Approve(env.guardian, action.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got := env.balance(t, env.childID); got != 10 {
		t.Errorf("balance = %d, want the submitted 10, not the edited 100", got)
	}
}

func TestApproveTwiceCreditsOnce(t *testing.T) {
	env := setupEngineTest(t)

	chore, _ := env.chores.Create(env.childID, "Dishes", 10, "")
	action, _ := env.engine.Submit(env.child, env.childID, chore.ID)

	if _, err := env.engine.Approve(env.guardian, action.ID); err != nil {
		t.Fatalf("first approve: %v", err)
	}
	_, err := env.engine.Approve(env.guardian, action.ID)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second approve: expected ErrNotFound, got %v", err)
	}
	if got := env.balance(t, env.childID); got != 10 {
		t.Errorf("balance = %d, want 10 after double approve", got)
	}
}

func TestRejectAppliesNoCredit(t *testing.T) {
	env := setupEngineTest(t)

	chore, _ := env.chores.Create(env.childID, "Dishes", 10, "")
	action, _ := env.engine.Submit(env.child, env.childID, chore.ID)

	if _, err := env.engine.Reject(env.guardian, action.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if got := env.balance(t, env.childID); got != 0 {
		t.Errorf("balance = %d, want 0 after reject", got)
	}

	entries, _ := env.ledger.ListHistory(env.childID, 0)
	if len(entries) != 0 {
		t.Errorf("expected no history after reject, got %d entries", len(entries))
	}

	// Rejection is terminal; approving afterwards finds nothing
	_, err := env.engine.Approve(env.guardian, action.ID)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("approve after reject: expected ErrNotFound, got %v", err)
	}
}

func TestSubmitForAnotherChild(t *testing.T) {
	env := setupEngineTest(t)

	sibling, err := env.participants.Create("sibling", "hash", "Sibling", model.RoleChild, env.child.HouseholdID, nil)
	if err != nil {
		t.Fatalf("create sibling: %v", err)
	}
	chore, _ := env.chores.Create(sibling.ID, "Sweep", 5, "")

	// A child cannot submit on a sibling's behalf
	_, err = env.engine.Submit(env.child, sibling.ID, chore.ID)
	if !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	// A guardian can
	if _, err := env.engine.Submit(env.guardian, sibling.ID, chore.ID); err != nil {
		t.Fatalf("guardian submit: %v", err)
	}
}

func TestSubmitUnknownChore(t *testing.T) {
	env := setupEngineTest(t)

	_, err := env.engine.Submit(env.child, env.childID, 9999)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestApproveAcrossHouseholds(t *testing.T) {
	env := setupEngineTest(t)

	chore, _ := env.chores.Create(env.childID, "Dishes", 10, "")
	action, _ := env.engine.Submit(env.child, env.childID, chore.ID)

	stranger := auth.Identity{ParticipantID: 999, HouseholdID: 999, Role: model.RoleGuardian}
	_, err := env.engine.Approve(stranger, action.ID)
	if !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if got := env.balance(t, env.childID); got != 0 {
		t.Errorf("balance = %d, want 0", got)
	}
}

func TestCompleteDirectForeignChore(t *testing.T) {
	env := setupEngineTest(t)

	// A big-ticket chore defined in a different household
	otherHousehold, err := store.NewHouseholdStore(env.db).Create("other household")
	if err != nil {
		t.Fatalf("create other household: %v", err)
	}
	otherChild, err := env.participants.Create("other_child", "hash", "Other", model.RoleChild, otherHousehold.ID, nil)
	if err != nil {
		t.Fatalf("create other child: %v", err)
	}
	foreign, _ := env.chores.Create(otherChild.ID, "Foreign chore", 500, "")

	_, err = env.engine.CompleteDirect(env.guardian, env.childID, foreign.ID)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign chore, got %v", err)
	}
	if got := env.balance(t, env.childID); got != 0 {
		t.Errorf("balance = %d, want 0 after rejected foreign credit", got)
	}

	// Submit is scoped the same way
	_, err = env.engine.Submit(env.child, env.childID, foreign.ID)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign submit, got %v", err)
	}
}

func TestCompleteDirect(t *testing.T) {
	env := setupEngineTest(t)

	chore, _ := env.chores.Create(env.childID, "Mow lawn", 25, "🌱")

	entry, err := env.engine.CompleteDirect(env.guardian, env.childID, chore.ID)
	if err != nil {
		t.Fatalf("complete direct: %v", err)
	}
	if entry.Amount != 25 {
		t.Errorf("amount = %d, want 25", entry.Amount)
	}
	if got := env.balance(t, env.childID); got != 25 {
		t.Errorf("balance = %d, want 25", got)
	}

	// No pending action is ever created
	actions, _ := env.pending.ListByHousehold(env.guardian.HouseholdID)
	if len(actions) != 0 {
		t.Errorf("expected no pending actions, got %d", len(actions))
	}
}
