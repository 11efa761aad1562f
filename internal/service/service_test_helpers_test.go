package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/nearbuyapp/api-nearbuy/internal/model"
	"github.com/nearbuyapp/api-nearbuy/pkg/oracle"
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
	user := model.User{
		Name:  "Test User",
		Email: uuid.NewString() + "@example.com",
	}
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

// sentPush captures one Dispatcher.Send call
type sentPush struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

// fakeDispatcher records pushes instead of delivering them
type fakeDispatcher struct {
	mu   sync.Mutex
	sent []sentPush
	fail bool
}

func (d *fakeDispatcher) SendToTokens(_ context.Context, tokens []string, title, body string, data map[string]string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, token := range tokens {
		d.sent = append(d.sent, sentPush{Token: token, Title: title, Body: body, Data: data})
	}
	if d.fail {
		return 0
	}
	return len(tokens)
}

func (d *fakeDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent)
}

func (d *fakeDispatcher) last() sentPush {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sent[len(d.sent)-1]
}

// fakePredictor serves canned verdicts keyed by product name and counts
// how often each one was asked for
type fakePredictor struct {
	mu       sync.Mutex
	verdicts map[string]oracle.Prediction
	errs     map[string]error
	calls    map[string]int
}

func newFakePredictor() *fakePredictor {
	return &fakePredictor{
		verdicts: map[string]oracle.Prediction{},
		errs:     map[string]error{},
		calls:    map[string]int{},
	}
}

func (p *fakePredictor) set(product string, answer bool, confidence float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.verdicts[product] = oracle.Prediction{Answer: answer, Confidence: confidence, Reason: "test verdict"}
}

func (p *fakePredictor) setErr(product string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs[product] = err
}

func (p *fakePredictor) clearErr(product string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.errs, product)
}

func (p *fakePredictor) Check(_ context.Context, product, _ string) (*oracle.Prediction, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[product]++
	if err, ok := p.errs[product]; ok {
		return nil, err
	}
	v, ok := p.verdicts[product]
	if !ok {
		return &oracle.Prediction{Answer: false, Confidence: 1, Reason: "unknown product"}, nil
	}
	return &v, nil
}

func (p *fakePredictor) callCount(product string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[product]
}

// fakePublisher records realtime events
type fakePublisher struct {
	mu     sync.Mutex
	events []model.AlertEvent
}

func (p *fakePublisher) PublishAlert(_ uuid.UUID, event model.AlertEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}
