package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/nearbuyapp/api-nearbuy/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AvailabilityRepository handles database operations for AvailabilityRecord
type AvailabilityRepository struct {
	db *gorm.DB
}

func NewAvailabilityRepository(db *gorm.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// Find returns the cached record for (item, store). A ttl of zero means
// records never expire; otherwise records older than ttl are treated as
// missing so the predictor gets asked again.
func (r *AvailabilityRepository) Find(itemID, storeID uuid.UUID, ttl time.Duration) (*model.AvailabilityRecord, error) {
	query := r.db.Where("item_id = ? AND store_id = ?", itemID, storeID)
	if ttl > 0 {
		query = query.Where("last_run >= ?", time.Now().Add(-ttl))
	}
	var rec model.AvailabilityRecord
	if err := query.First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// Save writes a predictor verdict through to the cache. The upsert
// keeps a TTL-expired row refreshable without violating the composite
// primary key.
func (r *AvailabilityRepository) Save(rec *model.AvailabilityRecord) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "item_id"}, {Name: "store_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"prediction": rec.Prediction,
			"confidence": rec.Confidence,
			"reason":     rec.Reason,
			"last_run":   rec.LastRun,
		}),
	}).Create(rec).Error
}
