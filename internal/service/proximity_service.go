package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nearbuyapp/api-nearbuy/internal/model"
	"github.com/nearbuyapp/api-nearbuy/internal/repository"
	"github.com/nearbuyapp/api-nearbuy/pkg/geo"
	"gorm.io/gorm"
)

// maxItemsInPush caps how many item names a push body lists before
// collapsing the rest into "…and N more items."
const maxItemsInPush = 5

// ProximityService drives the per-(user, store) geofence state machine:
// ABSENT → ENTERED on the first ping inside the radius, ENTERED →
// NOTIFIED once the dwell threshold is met and something on the list is
// available, and any state → ABSENT (row deleted) the moment a ping
// lands outside the radius. Leaving always restarts the dwell clock.
type ProximityService struct {
	db           *gorm.DB
	listRepo     *repository.ListRepository
	storeRepo    *repository.StoreRepository
	proxRepo     *repository.ProximityRepository
	userRepo     *repository.UserRepository
	alertRepo    *repository.AlertRepository
	availability *AvailabilityService
	dispatcher   Dispatcher
	publisher    AlertPublisher

	radiusMeters   float64
	dwellThreshold time.Duration
}

func NewProximityService(
	db *gorm.DB,
	listRepo *repository.ListRepository,
	storeRepo *repository.StoreRepository,
	proxRepo *repository.ProximityRepository,
	userRepo *repository.UserRepository,
	alertRepo *repository.AlertRepository,
	availability *AvailabilityService,
	dispatcher Dispatcher,
	publisher AlertPublisher,
	radiusMeters float64,
	dwellThreshold time.Duration,
) *ProximityService {
	return &ProximityService{
		db:             db,
		listRepo:       listRepo,
		storeRepo:      storeRepo,
		proxRepo:       proxRepo,
		userRepo:       userRepo,
		alertRepo:      alertRepo,
		availability:   availability,
		dispatcher:     dispatcher,
		publisher:      publisher,
		radiusMeters:   radiusMeters,
		dwellThreshold: dwellThreshold,
	}
}

// Ingest processes one location ping and returns the alerts it fired.
// Failures local to one store are logged and skipped; they never abort
// processing of the remaining stores.
func (s *ProximityService) Ingest(ctx context.Context, userID uuid.UUID, lat, lon float64, now time.Time) ([]model.FiredAlert, error) {
	candidates, err := s.listRepo.CandidateItems(userID, now)
	if err != nil {
		return nil, fmt.Errorf("load candidate items: %w", err)
	}
	if len(candidates) == 0 {
		return []model.FiredAlert{}, nil
	}

	stores, err := s.storeRepo.All()
	if err != nil {
		return nil, fmt.Errorf("load stores: %w", err)
	}

	fired := []model.FiredAlert{}
	for _, store := range stores {
		dist := geo.HaversineDistance(lat, lon, store.Latitude, store.Longitude)

		if dist > s.radiusMeters {
			// Outside the geofence: dropping the row resets the dwell
			// clock, so a re-entry waits the full threshold again.
			if err := s.proxRepo.Delete(userID, store.ID); err != nil {
				log.Printf("⚠️ Failed to clear proximity state for store %s: %v", store.ID, err)
			}
			continue
		}

		alert, err := s.handleInsideRadius(ctx, userID, store, candidates, now)
		if err != nil {
			log.Printf("⚠️ Proximity check failed for store %s: %v", store.ID, err)
			continue
		}
		if alert != nil {
			fired = append(fired, *alert)
		}
	}

	return fired, nil
}

// handleInsideRadius advances the state machine for one store the user
// is currently inside of
func (s *ProximityService) handleInsideRadius(ctx context.Context, userID uuid.UUID, store model.Store, candidates []model.ListItem, now time.Time) (*model.FiredAlert, error) {
	state, err := s.proxRepo.Find(userID, store.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if _, err := s.proxRepo.Create(userID, store.ID, now); err != nil {
			return nil, fmt.Errorf("create proximity state: %w", err)
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if state.Notified || now.Sub(state.EnteredAt) < s.dwellThreshold {
		return nil, nil
	}

	// Dwell threshold met: find which candidates this store carries.
	// A failed oracle call skips the item for this ping only; nothing
	// negative is cached, so the next ping retries it.
	available := []model.ListItem{}
	for _, item := range candidates {
		result, err := s.availability.Check(ctx, item, store, now)
		if err != nil {
			log.Printf("⚠️ Availability check failed for item %q at %q: %v", item.Name, store.Name, err)
			continue
		}
		if result.Available {
			available = append(available, item)
		}
	}
	if len(available) == 0 {
		return nil, nil
	}

	// Flip notified and record the alert atomically. If a concurrent
	// ping already won the flip, it owns the notification and we stop.
	var alert *model.Alert
	err = s.db.Transaction(func(tx *gorm.DB) error {
		claimed, err := s.proxRepo.WithTx(tx).ClaimNotified(userID, store.ID)
		if err != nil {
			return err
		}
		if !claimed {
			return nil
		}

		storeID := store.ID
		alert, err = s.alertRepo.WithTx(tx).Record(repository.RecordParams{
			UserID:        userID,
			StoreID:       &storeID,
			Type:          model.AlertTypeGeo,
			LastTriggered: now,
		}, available)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("record geo alert: %w", err)
	}
	if alert == nil {
		return nil, nil
	}

	names := make([]string, 0, len(available))
	for _, item := range available {
		names = append(names, item.Name)
	}

	title := "Store Nearby: " + store.Name
	body := s.formatPushBody(store.Name, names)
	s.dispatch(ctx, userID, title, body, map[string]string{
		"store_id": store.ID.String(),
		"items":    strings.Join(names, ","),
	})

	if s.publisher != nil {
		s.publisher.PublishAlert(userID, model.AlertEvent{
			AlertID:   alert.ID,
			Type:      model.AlertTypeGeo,
			Title:     title,
			Body:      body,
			StoreID:   alert.StoreID,
			Items:     names,
			CreatedAt: now,
		})
	}

	return &model.FiredAlert{
		AlertID:   alert.ID,
		StoreID:   store.ID,
		StoreName: store.Name,
		Items:     names,
	}, nil
}

// formatPushBody lists up to maxItemsInPush item names and folds the
// rest into a count
func (s *ProximityService) formatPushBody(storeName string, names []string) string {
	shown := names
	if len(shown) > maxItemsInPush {
		shown = shown[:maxItemsInPush]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You've been near %s for %d minutes.\n", storeName, int(s.dwellThreshold.Minutes()))
	b.WriteString("They carry these items from your list:\n")
	for _, name := range shown {
		fmt.Fprintf(&b, "• %s\n", name)
	}
	if more := len(names) - len(shown); more > 0 {
		fmt.Fprintf(&b, "…and %d more items.", more)
	}
	return strings.TrimRight(b.String(), "\n")
}

// dispatch fans one push out to all of the user's registered devices
func (s *ProximityService) dispatch(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string) {
	tokens, err := s.userRepo.GetUserTokens(userID)
	if err != nil {
		log.Printf("⚠️ Failed to load device tokens for user %s: %v", userID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}
	if sent := s.dispatcher.SendToTokens(ctx, tokens, title, body, data); sent < len(tokens) {
		log.Printf("⚠️ Push delivered to %d/%d devices for user %s", sent, len(tokens), userID)
	}
}
