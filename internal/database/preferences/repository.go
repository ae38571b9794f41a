// Package preferences provides database operations for user preferences.
//
// # Usage
//
//	repo := preferences.NewRepository(db)
//	err := repo.Set("provider", "groq")
//	pref, err := repo.Get("provider")
package preferences

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/entities"
)

// Repository handles all preference database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new preferences repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get retrieves a preference by key.
func (r *Repository) Get(key string) (*entities.Preference, error) {
	var pref entities.Preference
	if err := r.db.Where("key = ?", key).First(&pref).Error; err != nil {
		return nil, fmt.Errorf("preference %q: %w", key, err)
	}
	return &pref, nil
}

// Set creates or updates a preference.
func (r *Repository) Set(key, value string) error {
	pref := entities.Preference{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&pref).Error
}

// Delete removes a preference by key. Missing keys are not an error.
func (r *Repository) Delete(key string) error {
	return r.db.Where("key = ?", key).Delete(&entities.Preference{}).Error
}

// All returns every preference as a key/value map.
func (r *Repository) All() (map[string]string, error) {
	var prefs []entities.Preference
	if err := r.db.Order("key").Find(&prefs).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(prefs))
	for _, p := range prefs {
		out[p.Key] = p.Value
	}
	return out, nil
}
