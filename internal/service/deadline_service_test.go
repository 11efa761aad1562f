package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/nearbuyapp/api-nearbuy/internal/model"
	"github.com/nearbuyapp/api-nearbuy/internal/repository"
	"gorm.io/gorm"
)

type deadlineFixture struct {
	db         *gorm.DB
	svc        *DeadlineService
	dispatcher *fakeDispatcher
	publisher  *fakePublisher
	user       *model.User
}

func newDeadlineFixture(t *testing.T) *deadlineFixture {
	t.Helper()

	db := newTestDB(t)
	dispatcher := &fakeDispatcher{}
	publisher := &fakePublisher{}

	listRepo := repository.NewListRepository(db)
	userRepo := repository.NewUserRepository(db)
	alertRepo := repository.NewAlertRepository(db)

	svc := NewDeadlineService(db, listRepo, userRepo, alertRepo, dispatcher, publisher, 24*time.Hour)

	user := createTestUser(t, db)
	if err := userRepo.AddDevice(user.ID, "device-token", "android"); err != nil {
		t.Fatalf("add device: %v", err)
	}

	return &deadlineFixture{db: db, svc: svc, dispatcher: dispatcher, publisher: publisher, user: user}
}

func (f *deadlineFixture) alertCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	if err := f.db.Model(&model.Alert{}).Count(&count).Error; err != nil {
		t.Fatalf("count alerts: %v", err)
	}
	return count
}

func TestScanNotifiesListOnce(t *testing.T) {
	f := newDeadlineFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	deadline := now.Add(12 * time.Hour)
	list := createTestList(t, f.db, f.user.ID, "Groceries", &deadline)

	if err := f.svc.Scan(ctx, now); err != nil {
		t.Fatalf("first scan: %v", err)
	}
	if f.alertCount(t) != 1 {
		t.Fatalf("expected one alert, got %d", f.alertCount(t))
	}
	if f.dispatcher.count() != 1 {
		t.Fatalf("expected one push, got %d", f.dispatcher.count())
	}

	push := f.dispatcher.last()
	if push.Title != "List Deadline Approaching" {
		t.Fatalf("unexpected push title %q", push.Title)
	}
	if !strings.Contains(push.Body, `"Groceries"`) {
		t.Fatalf("push body missing list name: %q", push.Body)
	}

	var reloaded model.List
	if err := f.db.First(&reloaded, "id = ?", list.ID).Error; err != nil {
		t.Fatalf("reload list: %v", err)
	}
	if !reloaded.DeadlineNotified {
		t.Fatal("list must be marked notified")
	}

	// A second sweep over the same window fires nothing new.
	if err := f.svc.Scan(ctx, now); err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if f.alertCount(t) != 1 || f.dispatcher.count() != 1 {
		t.Fatal("repeated scans must not re-notify")
	}
}

func TestScanFoldsMatchingItemIntoListAlert(t *testing.T) {
	f := newDeadlineFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	deadline := now.Add(6 * time.Hour)
	list := createTestList(t, f.db, f.user.ID, "Groceries", &deadline)
	item := createTestItem(t, f.db, model.ListItem{ListID: list.ID, Name: "Milk", Deadline: &deadline})

	if err := f.svc.Scan(ctx, now); err != nil {
		t.Fatalf("scan: %v", err)
	}

	// One alert total: the item rode along on the list's alert.
	if f.alertCount(t) != 1 {
		t.Fatalf("expected one alert, got %d", f.alertCount(t))
	}
	if f.dispatcher.count() != 1 {
		t.Fatalf("expected only the list push, got %d", f.dispatcher.count())
	}

	var alert model.Alert
	if err := f.db.First(&alert).Error; err != nil {
		t.Fatalf("load alert: %v", err)
	}
	var links []model.AlertItem
	if err := f.db.Where("alert_id = ?", alert.ID).Find(&links).Error; err != nil {
		t.Fatalf("load links: %v", err)
	}
	if len(links) != 1 || links[0].ItemID != item.ID {
		t.Fatalf("expected the item linked to the list alert, got %+v", links)
	}

	var reloaded model.ListItem
	if err := f.db.First(&reloaded, "id = ?", item.ID).Error; err != nil {
		t.Fatalf("reload item: %v", err)
	}
	if !reloaded.DeadlineNotified {
		t.Fatal("folded item must still be marked notified")
	}
}

func TestScanItemWithOwnDeadlineGetsOwnAlert(t *testing.T) {
	f := newDeadlineFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	listDeadline := now.Add(20 * time.Hour)
	itemDeadline := now.Add(6 * time.Hour)
	list := createTestList(t, f.db, f.user.ID, "Groceries", &listDeadline)
	createTestItem(t, f.db, model.ListItem{ListID: list.ID, Name: "Milk", Deadline: &itemDeadline})

	if err := f.svc.Scan(ctx, now); err != nil {
		t.Fatalf("scan: %v", err)
	}

	// Diverging deadlines produce two alerts and two pushes.
	if f.alertCount(t) != 2 {
		t.Fatalf("expected two alerts, got %d", f.alertCount(t))
	}
	if f.dispatcher.count() != 2 {
		t.Fatalf("expected two pushes, got %d", f.dispatcher.count())
	}

	push := f.dispatcher.last()
	if push.Title != "Item Deadline Approaching" {
		t.Fatalf("unexpected push title %q", push.Title)
	}
	if !strings.Contains(push.Body, `"Milk"`) {
		t.Fatalf("push body missing item name: %q", push.Body)
	}
}

func TestScanItemAloneInsideWindowGetsOwnAlert(t *testing.T) {
	f := newDeadlineFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	// The list already fired in an earlier window, so this tick sees the
	// matching item without a fresh list alert to fold into.
	deadline := now.Add(6 * time.Hour)
	list := createTestList(t, f.db, f.user.ID, "Groceries", &deadline)
	if err := f.db.Model(list).Update("deadline_notified", true).Error; err != nil {
		t.Fatalf("mark list notified: %v", err)
	}
	createTestItem(t, f.db, model.ListItem{ListID: list.ID, Name: "Milk", Deadline: &deadline})

	if err := f.svc.Scan(ctx, now); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if f.alertCount(t) != 1 {
		t.Fatalf("expected the item's own alert, got %d alerts", f.alertCount(t))
	}
	if f.dispatcher.count() != 1 {
		t.Fatalf("expected one push, got %d", f.dispatcher.count())
	}
	if f.dispatcher.last().Title != "Item Deadline Approaching" {
		t.Fatalf("unexpected push title %q", f.dispatcher.last().Title)
	}
}

func TestScanPushesToEveryDevice(t *testing.T) {
	f := newDeadlineFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := repository.NewUserRepository(f.db).AddDevice(f.user.ID, "second-device-token", "ios"); err != nil {
		t.Fatalf("add second device: %v", err)
	}

	deadline := now.Add(12 * time.Hour)
	createTestList(t, f.db, f.user.ID, "Groceries", &deadline)

	if err := f.svc.Scan(ctx, now); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if f.alertCount(t) != 1 {
		t.Fatalf("expected one alert, got %d", f.alertCount(t))
	}
	if f.dispatcher.count() != 2 {
		t.Fatalf("expected one push per device, got %d", f.dispatcher.count())
	}
}

func TestScanIgnoresRowsOutsideWindow(t *testing.T) {
	f := newDeadlineFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	past := now.Add(-time.Hour)
	farFuture := now.Add(48 * time.Hour)
	createTestList(t, f.db, f.user.ID, "Overdue", &past)
	createTestList(t, f.db, f.user.ID, "Far away", &farFuture)
	createTestList(t, f.db, f.user.ID, "No deadline", nil)

	if err := f.svc.Scan(ctx, now); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if f.alertCount(t) != 0 || f.dispatcher.count() != 0 {
		t.Fatal("nothing inside the window must mean no alerts")
	}
}
