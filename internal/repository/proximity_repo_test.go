package repository

import (
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"
)

func TestProximityLifecycle(t *testing.T) {
	db := newTestDB(t)
	repo := NewProximityRepository(db)

	user := createTestUser(t, db)
	store := createTestStore(t, db, "Corner Shop", 52.52, 13.40)

	if _, err := repo.Find(user.ID, store.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}

	entered := time.Now().UTC().Truncate(time.Second)
	if _, err := repo.Create(user.ID, store.ID, entered); err != nil {
		t.Fatalf("create state: %v", err)
	}

	state, err := repo.Find(user.ID, store.ID)
	if err != nil {
		t.Fatalf("find state: %v", err)
	}
	if state.Notified {
		t.Fatal("fresh state must not be marked notified")
	}
	if !state.EnteredAt.Equal(entered) {
		t.Fatalf("entered_at = %v, want %v", state.EnteredAt, entered)
	}

	if err := repo.Delete(user.ID, store.ID); err != nil {
		t.Fatalf("delete state: %v", err)
	}
	if _, err := repo.Find(user.ID, store.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found after delete, got %v", err)
	}
}

func TestClaimNotifiedWinsExactlyOnce(t *testing.T) {
	db := newTestDB(t)
	repo := NewProximityRepository(db)

	user := createTestUser(t, db)
	store := createTestStore(t, db, "Corner Shop", 52.52, 13.40)

	if _, err := repo.Create(user.ID, store.ID, time.Now()); err != nil {
		t.Fatalf("create state: %v", err)
	}

	won, err := repo.ClaimNotified(user.ID, store.ID)
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if !won {
		t.Fatal("first claim should win")
	}

	won, err = repo.ClaimNotified(user.ID, store.ID)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if won {
		t.Fatal("second claim must lose")
	}
}
