package exporters

import "github.com/Etherea7/bible-study-scribby-sub000/internal/entities"

type StudyExporter interface {
	Export(studies []entities.EditableStudy) (ExportResult, error)
}

// StudyReader is the read side of the saved study store.
type StudyReader interface {
	Get(id string) (*entities.EditableStudy, error)
	List() ([]entities.EditableStudy, error)
}

type ExportResult struct {
	StudiesProcessed int      `json:"studies_processed"`
	StudiesFailed    int      `json:"studies_failed"`
	Files            []string `json:"files"`
}
