// Package transfer exports reading history and saved studies as a versioned
// JSON document and imports such documents back.
package transfer

import (
	"errors"
	"fmt"
	"time"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/entities"
)

// CurrentVersion is the document version written by Export.
const CurrentVersion = 2

var (
	ErrMalformedDocument  = errors.New("malformed import document")
	ErrUnsupportedVersion = errors.New("unsupported document version")
	ErrInvalidDocument    = errors.New("import document failed validation")
)

// Document is the export file format.
type Document struct {
	Version      int                           `json:"version"`
	ExportedAt   time.Time                     `json:"exportedAt"`
	History      []entities.ReadingHistoryItem `json:"history"`
	SavedStudies []entities.EditableStudy      `json:"savedStudies"`
}

type HistoryStore interface {
	List(limit int) ([]entities.ReadingHistoryItem, error)
	Exists(id string) (bool, error)
	Upsert(item *entities.ReadingHistoryItem) error
}

type StudyStore interface {
	List() ([]entities.EditableStudy, error)
	Exists(id string) (bool, error)
	Insert(study *entities.EditableStudy) error
}

// Archiver keeps a copy of every raw import payload.
type Archiver interface {
	SaveRaw(data []byte) (string, error)
}

// Export collects every history item and saved study into a Document.
func (s *Service) Export() (*Document, error) {
	history, err := s.history.List(0)
	if err != nil {
		return nil, fmt.Errorf("export history: %w", err)
	}
	studies, err := s.studies.List()
	if err != nil {
		return nil, fmt.Errorf("export studies: %w", err)
	}
	if history == nil {
		history = []entities.ReadingHistoryItem{}
	}
	if studies == nil {
		studies = []entities.EditableStudy{}
	}
	return &Document{
		Version:      CurrentVersion,
		ExportedAt:   time.Now().UTC(),
		History:      history,
		SavedStudies: studies,
	}, nil
}
