package entities

import (
	"encoding/json"
	"fmt"
	"time"
)

// ReadingHistoryItem records one generated study.
type ReadingHistoryItem struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	Book       string    `gorm:"size:50;not null" json:"book"`
	Chapter    int       `gorm:"not null" json:"chapter"`
	StartVerse int       `json:"startVerse,omitempty"`
	EndVerse   int       `json:"endVerse,omitempty"`
	Reference  string    `gorm:"size:100;not null;index" json:"reference"`
	Provider   string    `gorm:"size:50" json:"provider,omitempty"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
}

func (ReadingHistoryItem) TableName() string {
	return "reading_history"
}

type CachedPassage struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Reference string    `gorm:"uniqueIndex;size:100;not null" json:"reference"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

func (CachedPassage) TableName() string {
	return "cached_passages"
}

type CachedStudy struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Reference string    `gorm:"uniqueIndex;size:100;not null" json:"reference"`
	Content   string    `gorm:"type:text;not null" json:"-"`
	Provider  string    `gorm:"size:50" json:"provider"`
	Model     string    `gorm:"size:100" json:"model"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

func (CachedStudy) TableName() string {
	return "cached_studies"
}

// Study decodes the stored study JSON.
func (c *CachedStudy) Study() (*Study, error) {
	var s Study
	if err := json.Unmarshal([]byte(c.Content), &s); err != nil {
		return nil, fmt.Errorf("decode cached study %s: %w", c.Reference, err)
	}
	return &s, nil
}

// SavedStudyRecord is the stored form of an EditableStudy.
type SavedStudyRecord struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Reference string    `gorm:"size:100;not null;index" json:"reference"`
	Content   string    `gorm:"type:text;not null" json:"-"`
	IsEdited  bool      `json:"isEdited"`
	IsSaved   bool      `json:"isSaved"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (SavedStudyRecord) TableName() string {
	return "saved_studies"
}

// NewSavedStudyRecord encodes an editable study for storage.
func NewSavedStudyRecord(s *EditableStudy) (*SavedStudyRecord, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode study %s: %w", s.ID, err)
	}
	return &SavedStudyRecord{
		ID:        s.ID,
		Reference: s.Reference,
		Content:   string(data),
		IsEdited:  s.IsEdited,
		IsSaved:   s.IsSaved,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}, nil
}

// Study decodes the stored editable study.
func (r *SavedStudyRecord) Study() (*EditableStudy, error) {
	var s EditableStudy
	if err := json.Unmarshal([]byte(r.Content), &s); err != nil {
		return nil, fmt.Errorf("decode saved study %s: %w", r.ID, err)
	}
	s.ID = r.ID
	s.IsEdited = r.IsEdited
	s.IsSaved = r.IsSaved
	s.CreatedAt = r.CreatedAt
	s.UpdatedAt = r.UpdatedAt
	return &s, nil
}

type Preference struct {
	Key       string    `gorm:"primaryKey;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Preference) TableName() string {
	return "preferences"
}

// Known preference keys
const (
	PreferenceProvider       = "provider"
	PreferenceModel          = "model"
	PreferenceLastReference  = "last_reference"
	PreferenceIncludeHeading = "include_headings"
)
