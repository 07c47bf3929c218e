package store

import (
	"database/sql"
	"testing"

	"github.com/rfosterdev/chorebank/internal/database"
	"github.com/rfosterdev/chorebank/internal/model"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// testFamily is the standard fixture: one household with a guardian and a
// child.
type testFamily struct {
	household *model.Household
	guardian  *model.Participant
	child     *model.Participant
}

func seedFamily(t *testing.T, db *sql.DB, prefix string) testFamily {
	t.Helper()
	hs := NewHouseholdStore(db)
	ps := NewParticipantStore(db)

	household, err := hs.Create(prefix + " household")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	guardian, err := ps.Create(prefix+"_guardian", "hash", "Guardian", model.RoleGuardian, household.ID, nil)
	if err != nil {
		t.Fatalf("create guardian: %v", err)
	}
	child, err := ps.Create(prefix+"_child", "hash", "Child", model.RoleChild, household.ID, &guardian.ID)
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	return testFamily{household: household, guardian: guardian, child: child}
}

func setBalance(t *testing.T, db *sql.DB, participantID int64, balance int) {
	t.Helper()
	if _, err := db.Exec(`UPDATE participants SET balance = ? WHERE id = ?`, balance, participantID); err != nil {
		t.Fatalf("set balance: %v", err)
	}
}

func getBalance(t *testing.T, db *sql.DB, participantID int64) int {
	t.Helper()
	var balance int
	if err := db.QueryRow(`SELECT balance FROM participants WHERE id = ?`, participantID).Scan(&balance); err != nil {
		t.Fatalf("get balance: %v", err)
	}
	return balance
}
