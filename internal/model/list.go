package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// List is a shopping list owned by a user. Lists and items are created
// by the list service; the alerting engine reads them and flips
// deadline_notified once a deadline push has gone out.
type List struct {
	ID               uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	UserID           uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	Name             string     `json:"name" gorm:"size:255;not null"`
	Deadline         *time.Time `json:"deadline"`
	DeadlineNotified bool       `json:"deadline_notified" gorm:"not null;default:false"`
	IsDeleted        bool       `json:"is_deleted" gorm:"not null;default:false"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// Relations
	Items []ListItem `json:"items,omitempty" gorm:"foreignKey:ListID"`
}

func (l *List) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// ListItem is a single entry on a shopping list. Only items with
// geo_alert=true, unchecked and undeleted, whose deadlines (item and
// list) have not passed, take part in proximity checks.
type ListItem struct {
	ID               uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	ListID           uuid.UUID  `json:"list_id" gorm:"type:uuid;not null;index"`
	Name             string     `json:"name" gorm:"size:255;not null"`
	GeoAlert         bool       `json:"geo_alert" gorm:"not null;default:false"`
	Deadline         *time.Time `json:"deadline"`
	DeadlineNotified bool       `json:"deadline_notified" gorm:"not null;default:false"`
	IsChecked        bool       `json:"is_checked" gorm:"not null;default:false"`
	IsDeleted        bool       `json:"is_deleted" gorm:"not null;default:false"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (i *ListItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
