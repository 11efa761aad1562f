package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/nearbuyapp/api-nearbuy/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AlertRepository is the single choke point through which every
// notification event becomes durable and deduplicated.
type AlertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *AlertRepository) WithTx(tx *gorm.DB) *AlertRepository {
	return &AlertRepository{db: tx}
}

// RecordParams describes one notification event
type RecordParams struct {
	UserID        uuid.UUID
	StoreID       *uuid.UUID
	ListID        *uuid.UUID
	Type          model.AlertType
	LastTriggered time.Time
}

// Record inserts one Alert row and links the given items to it.
// Links use insert-or-ignore on (alert_id, item_id), so retried or
// duplicate calls never create a second link row.
func (r *AlertRepository) Record(params RecordParams, items []model.ListItem) (*model.Alert, error) {
	alert := model.Alert{
		UserID:        params.UserID,
		StoreID:       params.StoreID,
		ListID:        params.ListID,
		Type:          params.Type,
		LastTriggered: params.LastTriggered,
	}
	if err := r.db.Create(&alert).Error; err != nil {
		return nil, err
	}

	for _, item := range items {
		if err := r.LinkItem(alert.ID, item.ID, item.ListID); err != nil {
			return nil, err
		}
	}

	return &alert, nil
}

// LinkItem attaches an item to an existing alert, idempotently
func (r *AlertRepository) LinkItem(alertID, itemID, listID uuid.UUID) error {
	link := model.AlertItem{
		AlertID: alertID,
		ItemID:  itemID,
		ListID:  listID,
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error
}

// ListForUser returns the user's notification log, newest first,
// with the linked item names resolved.
func (r *AlertRepository) ListForUser(userID uuid.UUID, limit int) ([]model.AlertResponse, error) {
	var alerts []model.Alert
	err := r.db.
		Preload("Items").
		Where("user_id = ?", userID).
		Order("last_triggered DESC").
		Limit(limit).
		Find(&alerts).Error
	if err != nil {
		return nil, err
	}

	result := make([]model.AlertResponse, 0, len(alerts))
	for _, alert := range alerts {
		names := []string{}
		if len(alert.Items) > 0 {
			itemIDs := make([]uuid.UUID, 0, len(alert.Items))
			for _, link := range alert.Items {
				itemIDs = append(itemIDs, link.ItemID)
			}
			if err := r.db.Model(&model.ListItem{}).
				Where("id IN ?", itemIDs).
				Pluck("name", &names).Error; err != nil {
				return nil, err
			}
		}
		result = append(result, model.AlertResponse{Alert: alert, ItemNames: names})
	}
	return result, nil
}

// CountForUser counts alerts of one type for a user
func (r *AlertRepository) CountForUser(userID uuid.UUID, alertType model.AlertType) (int64, error) {
	var count int64
	err := r.db.Model(&model.Alert{}).
		Where("user_id = ? AND type = ?", userID, alertType).
		Count(&count).Error
	return count, err
}
