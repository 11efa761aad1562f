package service

import (
	"context"
	"errors"
	"time"

	"github.com/nearbuyapp/api-nearbuy/internal/model"
	"github.com/nearbuyapp/api-nearbuy/internal/repository"
	"gorm.io/gorm"
)

// AvailabilityService answers "is item sold at store?" while shielding
// the slow external predictor behind a write-through cache keyed by
// (item, store). With TTL zero the cache never expires, which keeps the
// predictor at one call per pair for the lifetime of the data.
type AvailabilityService struct {
	repo          *repository.AvailabilityRepository
	predictor     Predictor
	ttl           time.Duration
	minConfidence float64
}

// AvailabilityResult is the answer for one (item, store) pair
type AvailabilityResult struct {
	Available  bool
	Confidence float64
	Reason     string
}

func NewAvailabilityService(
	repo *repository.AvailabilityRepository,
	predictor Predictor,
	ttl time.Duration,
	minConfidence float64,
) *AvailabilityService {
	return &AvailabilityService{
		repo:          repo,
		predictor:     predictor,
		ttl:           ttl,
		minConfidence: minConfidence,
	}
}

// Check resolves availability for an item at a store. Cache hits are
// answered from the stored record; misses call the predictor and persist
// the raw verdict. A predictor failure propagates as a transient error
// and writes nothing, so the next trigger retries.
func (s *AvailabilityService) Check(ctx context.Context, item model.ListItem, store model.Store, now time.Time) (*AvailabilityResult, error) {
	rec, err := s.repo.Find(item.ID, store.ID, s.ttl)
	if err == nil {
		return s.result(rec), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	pred, err := s.predictor.Check(ctx, item.Name, store.Name)
	if err != nil {
		return nil, err
	}

	rec = &model.AvailabilityRecord{
		ItemID:     item.ID,
		StoreID:    store.ID,
		Prediction: pred.Answer,
		Confidence: pred.Confidence,
		Reason:     pred.Reason,
		LastRun:    now,
	}
	if err := s.repo.Save(rec); err != nil {
		return nil, err
	}

	return s.result(rec), nil
}

// result applies the use-time confidence threshold to a stored record.
// The record keeps the raw predictor verdict; only the answer handed to
// callers is filtered.
func (s *AvailabilityService) result(rec *model.AvailabilityRecord) *AvailabilityResult {
	return &AvailabilityResult{
		Available:  rec.Prediction && rec.Confidence >= s.minConfidence,
		Confidence: rec.Confidence,
		Reason:     rec.Reason,
	}
}
