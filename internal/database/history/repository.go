// Package history provides database operations for the reading history.
//
// # Usage
//
//	repo := history.NewRepository(db)
//	err := repo.Add(&entities.ReadingHistoryItem{Book: "John", Chapter: 1, Reference: "John 1"})
//	items, err := repo.List(50)
package history

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/entities"
)

// Repository handles all reading history database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new history repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Add inserts a history item, assigning an id and timestamp when missing.
func (r *Repository) Add(item *entities.ReadingHistoryItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	return r.db.Create(item).Error
}

// List returns history, most recent first. A limit of 0 returns everything.
func (r *Repository) List(limit int) ([]entities.ReadingHistoryItem, error) {
	var items []entities.ReadingHistoryItem
	query := r.db.Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&items).Error
	return items, err
}

// Get retrieves a history item by id.
func (r *Repository) Get(id string) (*entities.ReadingHistoryItem, error) {
	var item entities.ReadingHistoryItem
	if err := r.db.Where("id = ?", id).First(&item).Error; err != nil {
		return nil, fmt.Errorf("history item %s: %w", id, err)
	}
	return &item, nil
}

// Exists reports whether a history item with the id is stored.
func (r *Repository) Exists(id string) (bool, error) {
	var count int64
	err := r.db.Model(&entities.ReadingHistoryItem{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// Upsert inserts or fully replaces a history item by id.
func (r *Repository) Upsert(item *entities.ReadingHistoryItem) error {
	return r.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(item).Error
}

// Delete removes a history item. Deleting a missing id returns gorm.ErrRecordNotFound.
func (r *Repository) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&entities.ReadingHistoryItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("history item %s: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

// Clear removes all history and returns the number of rows deleted.
func (r *Repository) Clear() (int64, error) {
	result := r.db.Where("1 = 1").Delete(&entities.ReadingHistoryItem{})
	return result.RowsAffected, result.Error
}

func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.ReadingHistoryItem{}).Count(&count).Error
	return count, err
}
