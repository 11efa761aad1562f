package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/nearbuyapp/api-nearbuy/internal/model"
	"gorm.io/gorm"
)

// ProximityRepository handles database operations for ProximityState
type ProximityRepository struct {
	db *gorm.DB
}

func NewProximityRepository(db *gorm.DB) *ProximityRepository {
	return &ProximityRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *ProximityRepository) WithTx(tx *gorm.DB) *ProximityRepository {
	return &ProximityRepository{db: tx}
}

// Find returns the dwell state for (user, store), or gorm.ErrRecordNotFound
func (r *ProximityRepository) Find(userID, storeID uuid.UUID) (*model.ProximityState, error) {
	var state model.ProximityState
	err := r.db.Where("user_id = ? AND store_id = ?", userID, storeID).First(&state).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// Create starts a dwell period for (user, store)
func (r *ProximityRepository) Create(userID, storeID uuid.UUID, enteredAt time.Time) (*model.ProximityState, error) {
	state := model.ProximityState{
		UserID:    userID,
		StoreID:   storeID,
		EnteredAt: enteredAt,
		Notified:  false,
	}
	if err := r.db.Create(&state).Error; err != nil {
		return nil, err
	}
	return &state, nil
}

// Delete ends the dwell period for (user, store). Deleting the row is
// what resets the dwell clock: re-entry starts over from zero.
func (r *ProximityRepository) Delete(userID, storeID uuid.UUID) error {
	return r.db.
		Where("user_id = ? AND store_id = ?", userID, storeID).
		Delete(&model.ProximityState{}).Error
}

// ClaimNotified flips notified false→true for (user, store) and reports
// whether this call won the flip. Concurrent pings inside the same
// dwell window race on this update; only the winner may fire the alert.
func (r *ProximityRepository) ClaimNotified(userID, storeID uuid.UUID) (bool, error) {
	res := r.db.Model(&model.ProximityState{}).
		Where("user_id = ? AND store_id = ? AND notified = ?", userID, storeID, false).
		Update("notified", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
