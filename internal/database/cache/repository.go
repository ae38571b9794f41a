// Package cache provides database operations for cached ESV passages and
// generated studies, both keyed by passage reference.
package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/entities"
)

// Repository handles cache table operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new cache repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Stats counts cached rows.
type Stats struct {
	Passages int64 `json:"passages"`
	Studies  int64 `json:"studies"`
}

// PruneResult counts rows removed by PruneOlderThan.
type PruneResult struct {
	Passages int64 `json:"passages"`
	Studies  int64 `json:"studies"`
}

// GetPassage returns the cached text for a reference.
func (r *Repository) GetPassage(reference string) (*entities.CachedPassage, error) {
	var p entities.CachedPassage
	if err := r.db.Where("reference = ?", reference).First(&p).Error; err != nil {
		return nil, fmt.Errorf("cached passage %q: %w", reference, err)
	}
	return &p, nil
}

// PutPassage stores passage text, replacing any previous text for the reference.
func (r *Repository) PutPassage(reference, text string) error {
	p := entities.CachedPassage{Reference: reference, Text: text, CreatedAt: time.Now().UTC()}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "reference"}},
		DoUpdates: clause.AssignmentColumns([]string{"text", "created_at"}),
	}).Create(&p).Error
}

// GetStudy returns the cached study row for a reference.
func (r *Repository) GetStudy(reference string) (*entities.CachedStudy, error) {
	var s entities.CachedStudy
	if err := r.db.Where("reference = ?", reference).First(&s).Error; err != nil {
		return nil, fmt.Errorf("cached study %q: %w", reference, err)
	}
	return &s, nil
}

// PutStudy stores a generated study, replacing any previous one for the reference.
func (r *Repository) PutStudy(reference string, study *entities.Study, provider, model string) error {
	data, err := json.Marshal(study)
	if err != nil {
		return fmt.Errorf("encode study %q: %w", reference, err)
	}
	s := entities.CachedStudy{
		Reference: reference,
		Content:   string(data),
		Provider:  provider,
		Model:     model,
		CreatedAt: time.Now().UTC(),
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "reference"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "provider", "model", "created_at"}),
	}).Create(&s).Error
}

// DeleteStudy drops the cached study for a reference so the next request
// regenerates it. Returns gorm.ErrRecordNotFound when nothing was cached.
func (r *Repository) DeleteStudy(reference string) error {
	result := r.db.Where("reference = ?", reference).Delete(&entities.CachedStudy{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("cached study %q: %w", reference, gorm.ErrRecordNotFound)
	}
	return nil
}

// PruneOlderThan removes cached passages and studies created before cutoff.
func (r *Repository) PruneOlderThan(cutoff time.Time) (PruneResult, error) {
	var res PruneResult
	err := r.db.Transaction(func(tx *gorm.DB) error {
		p := tx.Where("created_at < ?", cutoff).Delete(&entities.CachedPassage{})
		if p.Error != nil {
			return p.Error
		}
		s := tx.Where("created_at < ?", cutoff).Delete(&entities.CachedStudy{})
		if s.Error != nil {
			return s.Error
		}
		res.Passages, res.Studies = p.RowsAffected, s.RowsAffected
		return nil
	})
	return res, err
}

// Stats returns how many passages and studies are cached.
func (r *Repository) Stats() (Stats, error) {
	var st Stats
	if err := r.db.Model(&entities.CachedPassage{}).Count(&st.Passages).Error; err != nil {
		return st, err
	}
	err := r.db.Model(&entities.CachedStudy{}).Count(&st.Studies).Error
	return st, err
}
