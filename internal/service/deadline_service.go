package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/nearbuyapp/api-nearbuy/internal/model"
	"github.com/nearbuyapp/api-nearbuy/internal/repository"
	"gorm.io/gorm"
)

// deadlineTimeFormat renders deadlines in push bodies
const deadlineTimeFormat = "2006-01-02 15:04 UTC"

// DeadlineService sweeps lists and items whose deadline falls inside
// the lookahead window and notifies each one exactly once. The
// deadline_notified flags are monotonic, so however many ticks observe
// a row inside the window, only the tick that wins the conditional flip
// sends anything.
type DeadlineService struct {
	db         *gorm.DB
	listRepo   *repository.ListRepository
	userRepo   *repository.UserRepository
	alertRepo  *repository.AlertRepository
	dispatcher Dispatcher
	publisher  AlertPublisher
	window     time.Duration
}

func NewDeadlineService(
	db *gorm.DB,
	listRepo *repository.ListRepository,
	userRepo *repository.UserRepository,
	alertRepo *repository.AlertRepository,
	dispatcher Dispatcher,
	publisher AlertPublisher,
	window time.Duration,
) *DeadlineService {
	return &DeadlineService{
		db:         db,
		listRepo:   listRepo,
		userRepo:   userRepo,
		alertRepo:  alertRepo,
		dispatcher: dispatcher,
		publisher:  publisher,
		window:     window,
	}
}

// Tick runs one sweep at the current time
func (s *DeadlineService) Tick(ctx context.Context) error {
	return s.Scan(ctx, time.Now().UTC())
}

// Scan runs one sweep at the given time. Each row commits on its own,
// so a mid-scan failure aborts the remainder of the tick but leaves
// already-notified rows correctly marked; the next tick resumes with
// whatever is still un-notified.
func (s *DeadlineService) Scan(ctx context.Context, now time.Time) error {
	windowEnd := now.Add(s.window)

	// Maps list → alert for the folding rule in the item pass
	listAlerts := map[uuid.UUID]uuid.UUID{}

	dueLists, err := s.listRepo.DueLists(now, windowEnd)
	if err != nil {
		return fmt.Errorf("load due lists: %w", err)
	}

	for _, lst := range dueLists {
		alert, err := s.notifyList(ctx, lst, now)
		if err != nil {
			return fmt.Errorf("notify list %s: %w", lst.ID, err)
		}
		if alert != nil {
			listAlerts[lst.ID] = alert.ID
		}
	}

	dueItems, err := s.listRepo.DueItems(now, windowEnd)
	if err != nil {
		return fmt.Errorf("load due items: %w", err)
	}

	for _, item := range dueItems {
		if err := s.notifyItem(ctx, item, listAlerts, now); err != nil {
			return fmt.Errorf("notify item %s: %w", item.ID, err)
		}
	}

	if len(dueLists) > 0 || len(dueItems) > 0 {
		log.Printf("⏰ Deadline sweep processed %d lists, %d items", len(dueLists), len(dueItems))
	}
	return nil
}

// notifyList claims and alerts one due list. Returns nil without error
// when another scanner instance won the claim.
func (s *DeadlineService) notifyList(ctx context.Context, lst model.List, now time.Time) (*model.Alert, error) {
	var alert *model.Alert
	err := s.db.Transaction(func(tx *gorm.DB) error {
		claimed, err := s.listRepo.WithTx(tx).ClaimListDeadline(lst.ID)
		if err != nil {
			return err
		}
		if !claimed {
			return nil
		}

		listID := lst.ID
		alert, err = s.alertRepo.WithTx(tx).Record(repository.RecordParams{
			UserID:        lst.UserID,
			ListID:        &listID,
			Type:          model.AlertTypeDeadline,
			LastTriggered: now,
		}, nil)
		return err
	})
	if err != nil || alert == nil {
		return nil, err
	}

	title := "List Deadline Approaching"
	body := fmt.Sprintf("Your list %q is due on %s (within 24 h).", lst.Name, lst.Deadline.UTC().Format(deadlineTimeFormat))
	s.dispatch(ctx, lst.UserID, title, body, map[string]string{"list_name": lst.Name})
	s.publish(lst.UserID, alert, title, body, now, nil)

	return alert, nil
}

// notifyItem handles one due item. An item whose deadline merely
// mirrors its list's deadline is folded into the list's alert from this
// tick instead of producing a second push.
func (s *DeadlineService) notifyItem(ctx context.Context, item model.ListItem, listAlerts map[uuid.UUID]uuid.UUID, now time.Time) error {
	parent, err := s.listRepo.FindListByID(item.ListID)
	if err != nil {
		return fmt.Errorf("load parent list: %w", err)
	}

	listAlertID, listFired := listAlerts[item.ListID]
	if listFired && parent.Deadline != nil && item.Deadline.Equal(*parent.Deadline) {
		return s.db.Transaction(func(tx *gorm.DB) error {
			claimed, err := s.listRepo.WithTx(tx).ClaimItemDeadline(item.ID)
			if err != nil {
				return err
			}
			if !claimed {
				return nil
			}
			return s.alertRepo.WithTx(tx).LinkItem(listAlertID, item.ID, item.ListID)
		})
	}

	var alert *model.Alert
	err = s.db.Transaction(func(tx *gorm.DB) error {
		claimed, err := s.listRepo.WithTx(tx).ClaimItemDeadline(item.ID)
		if err != nil {
			return err
		}
		if !claimed {
			return nil
		}

		alert, err = s.alertRepo.WithTx(tx).Record(repository.RecordParams{
			UserID:        parent.UserID,
			Type:          model.AlertTypeDeadline,
			LastTriggered: now,
		}, []model.ListItem{item})
		return err
	})
	if err != nil || alert == nil {
		return err
	}

	title := "Item Deadline Approaching"
	body := fmt.Sprintf("Your item %q is due on %s (within 24 h).", item.Name, item.Deadline.UTC().Format(deadlineTimeFormat))
	s.dispatch(ctx, parent.UserID, title, body, map[string]string{"item_name": item.Name})
	s.publish(parent.UserID, alert, title, body, now, []string{item.Name})

	return nil
}

// dispatch fans one push out to all of the user's registered devices
func (s *DeadlineService) dispatch(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string) {
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

func (s *DeadlineService) publish(userID uuid.UUID, alert *model.Alert, title, body string, now time.Time, items []string) {
	if s.publisher == nil {
		return
	}
	s.publisher.PublishAlert(userID, model.AlertEvent{
		AlertID:   alert.ID,
		Type:      model.AlertTypeDeadline,
		Title:     title,
		Body:      body,
		ListID:    alert.ListID,
		Items:     items,
		CreatedAt: now,
	})
}
