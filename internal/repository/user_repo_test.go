package repository

import (
	"testing"

	"github.com/nearbuyapp/api-nearbuy/internal/model"
)

func TestAddDeviceUpserts(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)

	user := createTestUser(t, db)

	if err := repo.AddDevice(user.ID, "token-a", "android"); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := repo.AddDevice(user.ID, "token-a", "ios"); err != nil {
		t.Fatalf("re-add same token: %v", err)
	}
	if err := repo.AddDevice(user.ID, "token-b", "android"); err != nil {
		t.Fatalf("second token: %v", err)
	}

	devices, err := repo.GetUserDevices(user.ID)
	if err != nil {
		t.Fatalf("get devices: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("expected 2 devices, got %d", len(devices))
	}

	var count int64
	if err := db.Model(&model.DeviceToken{}).
		Where("fcm_token = ?", "token-a").
		Count(&count).Error; err != nil {
		t.Fatalf("count token-a rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected token-a upserted in place, got %d rows", count)
	}

	tokens, err := repo.GetUserTokens(user.ID)
	if err != nil {
		t.Fatalf("get tokens: %v", err)
	}
	if len(tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(tokens))
	}
}
