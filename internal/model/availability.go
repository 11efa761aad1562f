package model

import (
	"time"

	"github.com/google/uuid"
)

// AvailabilityRecord caches one predictor verdict per (item, store).
// Prediction and confidence are stored exactly as the predictor
// returned them; whether a record counts as "available" is decided at
// read time by the availability service.
type AvailabilityRecord struct {
	ItemID     uuid.UUID `json:"item_id" gorm:"type:uuid;primaryKey"`
	StoreID    uuid.UUID `json:"store_id" gorm:"type:uuid;primaryKey"`
	Prediction bool      `json:"prediction" gorm:"not null"`
	Confidence float64   `json:"confidence" gorm:"not null"`
	Reason     string    `json:"reason" gorm:"type:text"`
	LastRun    time.Time `json:"last_run" gorm:"not null"`
}
