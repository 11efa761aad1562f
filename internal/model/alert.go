package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AlertType distinguishes why a notification was sent
type AlertType string

const (
	AlertTypeGeo      AlertType = "geo_alert"
	AlertTypeDeadline AlertType = "deadline_alert"
)

// Alert is one durable notification event (a batch). Together with
// AlertItem it is the record an operator queries to answer "did user X
// get notified about Y".
type Alert struct {
	ID            uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	UserID        uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	StoreID       *uuid.UUID `json:"store_id" gorm:"type:uuid"` // set for geo alerts
	ListID        *uuid.UUID `json:"list_id" gorm:"type:uuid"`  // set for list deadline alerts
	Type          AlertType  `json:"type" gorm:"size:32;not null"`
	LastTriggered time.Time  `json:"last_triggered" gorm:"not null"`

	// Relations
	Items []AlertItem `json:"items,omitempty" gorm:"foreignKey:AlertID"`
}

func (a *Alert) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// AlertItem links an alert to one list item. The (alert_id, item_id)
// primary key plus insert-or-ignore makes retried links idempotent.
type AlertItem struct {
	AlertID uuid.UUID `json:"alert_id" gorm:"type:uuid;primaryKey"`
	ItemID  uuid.UUID `json:"item_id" gorm:"type:uuid;primaryKey"`
	ListID  uuid.UUID `json:"list_id" gorm:"type:uuid;not null"`
}
