package repository

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/nearbuyapp/api-nearbuy/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&model.User{},
		&model.DeviceToken{},
		&model.List{},
		&model.ListItem{},
		&model.Store{},
		&model.ProximityState{},
		&model.AvailabilityRecord{},
		&model.Alert{},
		&model.AlertItem{},
	); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	return db
}

func createTestUser(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()
	user := model.User{Name: "Test Shopper", Email: uuid.NewString() + "@test.local"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return &user
}

func createTestStore(t *testing.T, db *gorm.DB, name string, lat, lon float64) *model.Store {
	t.Helper()
	store := model.Store{Name: name, Latitude: lat, Longitude: lon}
	if err := db.Create(&store).Error; err != nil {
		t.Fatalf("create test store: %v", err)
	}
	return &store
}

func createTestList(t *testing.T, db *gorm.DB, userID uuid.UUID, name string, deadline *time.Time) *model.List {
	t.Helper()
	list := model.List{UserID: userID, Name: name, Deadline: deadline}
	if err := db.Create(&list).Error; err != nil {
		t.Fatalf("create test list: %v", err)
	}
	return &list
}

func createTestItem(t *testing.T, db *gorm.DB, item model.ListItem) *model.ListItem {
	t.Helper()
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("create test item: %v", err)
	}
	return &item
}
