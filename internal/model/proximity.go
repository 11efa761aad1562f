package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProximityState tracks a user currently inside a store's geofence.
// The row is created on the first ping inside the radius and deleted as
// soon as a ping lands outside, which restarts the dwell clock on
// re-entry. Notified flips false→true at most once per row lifetime.
type ProximityState struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_store"`
	StoreID   uuid.UUID `json:"store_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_store"`
	EnteredAt time.Time `json:"entered_at" gorm:"not null"`
	Notified  bool      `json:"notified" gorm:"not null;default:false"`
}

func (p *ProximityState) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
