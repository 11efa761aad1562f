package repository

import (
	"github.com/google/uuid"
	"github.com/nearbuyapp/api-nearbuy/internal/model"
	"gorm.io/gorm"
)

// StoreRepository handles database operations for Store
type StoreRepository struct {
	db *gorm.DB
}

func NewStoreRepository(db *gorm.DB) *StoreRepository {
	return &StoreRepository{db: db}
}

// All returns every store. Proximity checks scan the full table; fine
// at the current store count, a spatial index would be needed beyond it.
func (r *StoreRepository) All() ([]model.Store, error) {
	var stores []model.Store
	err := r.db.Find(&stores).Error
	return stores, err
}

// FindByID finds a store by UUID
func (r *StoreRepository) FindByID(id uuid.UUID) (*model.Store, error) {
	var store model.Store
	err := r.db.Where("id = ?", id).First(&store).Error
	if err != nil {
		return nil, err
	}
	return &store, nil
}
