// Package studies provides database operations for saved, editable studies.
// Studies are stored as JSON documents with their flags lifted into columns.
package studies

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/entities"
)

// Repository handles saved study operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new studies repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Save creates or replaces a study by id. Missing ids and timestamps are filled in.
func (r *Repository) Save(study *entities.EditableStudy) error {
	now := time.Now().UTC()
	if study.ID == "" {
		study.ID = uuid.NewString()
	}
	if study.CreatedAt.IsZero() {
		study.CreatedAt = now
	}
	study.UpdatedAt = now

	rec, err := entities.NewSavedStudyRecord(study)
	if err != nil {
		return err
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"reference", "content", "is_edited", "is_saved", "updated_at"}),
	}).Create(rec).Error
}

// Insert stores a study exactly as given, keeping its timestamps. Used by import.
func (r *Repository) Insert(study *entities.EditableStudy) error {
	rec, err := entities.NewSavedStudyRecord(study)
	if err != nil {
		return err
	}
	return r.db.Create(rec).Error
}

// Get retrieves a study by id.
func (r *Repository) Get(id string) (*entities.EditableStudy, error) {
	var rec entities.SavedStudyRecord
	if err := r.db.Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, fmt.Errorf("study %s: %w", id, err)
	}
	return rec.Study()
}

// List returns all studies, most recently updated first.
func (r *Repository) List() ([]entities.EditableStudy, error) {
	return r.find(r.db.Order("updated_at DESC"))
}

// ListByReference returns all studies for a passage reference.
func (r *Repository) ListByReference(reference string) ([]entities.EditableStudy, error) {
	return r.find(r.db.Where("reference = ?", reference).Order("updated_at DESC"))
}

func (r *Repository) find(query *gorm.DB) ([]entities.EditableStudy, error) {
	var recs []entities.SavedStudyRecord
	if err := query.Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]entities.EditableStudy, 0, len(recs))
	for i := range recs {
		s, err := recs[i].Study()
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, nil
}

// Exists reports whether a study with the id is stored.
func (r *Repository) Exists(id string) (bool, error) {
	var count int64
	err := r.db.Model(&entities.SavedStudyRecord{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// Delete removes a study. Deleting a missing id returns gorm.ErrRecordNotFound.
func (r *Repository) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&entities.SavedStudyRecord{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("study %s: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}
