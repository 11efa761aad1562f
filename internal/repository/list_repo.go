package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/nearbuyapp/api-nearbuy/internal/model"
	"gorm.io/gorm"
)

// ListRepository handles database operations for List and ListItem
type ListRepository struct {
	db *gorm.DB
}

func NewListRepository(db *gorm.DB) *ListRepository {
	return &ListRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *ListRepository) WithTx(tx *gorm.DB) *ListRepository {
	return &ListRepository{db: tx}
}

// CandidateItems returns the user's geo-alert candidates: unchecked,
// undeleted items with geo_alert=true on undeleted lists, where neither
// the item deadline nor the list deadline has already passed.
func (r *ListRepository) CandidateItems(userID uuid.UUID, now time.Time) ([]model.ListItem, error) {
	var items []model.ListItem
	err := r.db.
		Joins("JOIN lists ON lists.id = list_items.list_id").
		Where("lists.user_id = ? AND lists.is_deleted = ?", userID, false).
		Where("list_items.geo_alert = ? AND list_items.is_deleted = ? AND list_items.is_checked = ?", true, false, false).
		Where("lists.deadline IS NULL OR lists.deadline >= ?", now).
		Where("list_items.deadline IS NULL OR list_items.deadline >= ?", now).
		Find(&items).Error
	return items, err
}

// FindListByID finds a list by UUID
func (r *ListRepository) FindListByID(id uuid.UUID) (*model.List, error) {
	var list model.List
	err := r.db.Where("id = ?", id).First(&list).Error
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// DueLists returns undeleted, not-yet-notified lists whose deadline
// falls inside [now, windowEnd]
func (r *ListRepository) DueLists(now, windowEnd time.Time) ([]model.List, error) {
	var lists []model.List
	err := r.db.
		Where("deadline IS NOT NULL AND deadline_notified = ? AND is_deleted = ?", false, false).
		Where("deadline >= ? AND deadline <= ?", now, windowEnd).
		Find(&lists).Error
	return lists, err
}

// DueItems returns undeleted, not-yet-notified items whose deadline
// falls inside [now, windowEnd]
func (r *ListRepository) DueItems(now, windowEnd time.Time) ([]model.ListItem, error) {
	var items []model.ListItem
	err := r.db.
		Where("deadline IS NOT NULL AND deadline_notified = ? AND is_deleted = ?", false, false).
		Where("deadline >= ? AND deadline <= ?", now, windowEnd).
		Find(&items).Error
	return items, err
}

// ClaimListDeadline flips deadline_notified false→true for the list and
// reports whether this call won the flip. The conditional update keeps
// concurrent scanner instances from double-firing on the same row.
func (r *ListRepository) ClaimListDeadline(listID uuid.UUID) (bool, error) {
	res := r.db.Model(&model.List{}).
		Where("id = ? AND deadline_notified = ?", listID, false).
		Update("deadline_notified", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ClaimItemDeadline flips deadline_notified false→true for the item and
// reports whether this call won the flip
func (r *ListRepository) ClaimItemDeadline(itemID uuid.UUID) (bool, error) {
	res := r.db.Model(&model.ListItem{}).
		Where("id = ? AND deadline_notified = ?", itemID, false).
		Update("deadline_notified", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
