package store

import (
	"errors"
	"testing"

	"github.com/rfosterdev/chorebank/internal/model"
)

func TestChoreCRUD(t *testing.T) {
	db := openTestDB(t)
	fam := seedFamily(t, db, "chore")
	cs := NewChoreStore(db)

	chore, err := cs.Create(fam.child.ID, "Wash dishes", 5, "🍽️")
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}
	if chore.Name != "Wash dishes" {
		t.Errorf("name = %q, want %q", chore.Name, "Wash dishes")
	}
	if chore.Points != 5 {
		t.Errorf("points = %d, want 5", chore.Points)
	}

	got, err := cs.GetByID(chore.ID)
	if err != nil {
		t.Fatalf("get chore: %v", err)
	}
	if got.Name != "Wash dishes" {
		t.Errorf("got name = %q, want %q", got.Name, "Wash dishes")
	}

	chores, err := cs.ListByParticipant(fam.child.ID)
	if err != nil {
		t.Fatalf("list chores: %v", err)
	}
	if len(chores) != 1 {
		t.Fatalf("expected 1 chore, got %d", len(chores))
	}

	if err := cs.Delete(chore.ID); err != nil {
		t.Fatalf("delete chore: %v", err)
	}
	got, err = cs.GetByID(chore.ID)
	if err != nil {
		t.Fatalf("get deleted chore: %v", err)
	}
	if got != nil {
		t.Error("expected nil for deleted chore")
	}
}

func TestChoreGetByIDNotFound(t *testing.T) {
	db := openTestDB(t)
	cs := NewChoreStore(db)

	got, err := cs.GetByID(9999)
	if err != nil {
		t.Fatalf("get chore: %v", err)
	}
	if got != nil {
		t.Error("expected nil for nonexistent chore")
	}
}

func TestChoreDeleteNotFound(t *testing.T) {
	db := openTestDB(t)
	cs := NewChoreStore(db)

	if err := cs.Delete(9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestChoreDeleteByNameAcrossChildren(t *testing.T) {
	db := openTestDB(t)
	fam := seedFamily(t, db, "batch")
	other := seedFamily(t, db, "otherfam")
	ps := NewParticipantStore(db)
	cs := NewChoreStore(db)

	sibling, err := ps.Create("batch_sibling", "hash", "Sibling", model.RoleChild, fam.household.ID, &fam.guardian.ID)
	if err != nil {
		t.Fatalf("create sibling: %v", err)
	}

	cs.Create(fam.child.ID, "Dishes", 5, "")
	cs.Create(sibling.ID, "Dishes", 5, "")
	cs.Create(sibling.ID, "Laundry", 5, "")
	cs.Create(other.child.ID, "Dishes", 5, "")

	affected, err := cs.DeleteByNameAcrossChildren(fam.household.ID, "Dishes")
	if err != nil {
		t.Fatalf("batch delete: %v", err)
	}
	if len(affected) != 2 {
		t.Fatalf("expected 2 affected participants, got %d", len(affected))
	}

	// Sibling's other chore survives
	chores, _ := cs.ListByParticipant(sibling.ID)
	if len(chores) != 1 || chores[0].Name != "Laundry" {
		t.Errorf("expected only Laundry left for sibling, got %+v", chores)
	}

	// Other household untouched
	chores, _ = cs.ListByParticipant(other.child.ID)
	if len(chores) != 1 {
		t.Errorf("expected other household's chore untouched, got %d", len(chores))
	}
}
