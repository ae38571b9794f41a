package studies

import (
	"context"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/entities"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/llm"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/passage"
)

// PassageSource returns passage text for a reference.
type PassageSource interface {
	Get(ctx context.Context, reference string) (*passage.Result, error)
}

// Generator produces studies and completions through LLM providers.
type Generator interface {
	GenerateStudy(ctx context.Context, in llm.StudyInput) (*llm.StudyResult, error)
	GenerateStudyWith(ctx context.Context, p llm.Provider, in llm.StudyInput) (*llm.StudyResult, error)
	Complete(ctx context.Context, prompt, provider, model string) (*llm.CompletionResult, error)
	CompleteWith(ctx context.Context, p llm.Provider, prompt, model string) (*llm.CompletionResult, error)
}

// StudyCache stores generated studies by reference.
type StudyCache interface {
	GetStudy(reference string) (*entities.CachedStudy, error)
	PutStudy(reference string, study *entities.Study, provider, model string) error
}

// HistoryWriter records generated studies.
type HistoryWriter interface {
	Add(item *entities.ReadingHistoryItem) error
}

// StudyStore persists editable studies.
type StudyStore interface {
	Save(study *entities.EditableStudy) error
	Get(id string) (*entities.EditableStudy, error)
	List() ([]entities.EditableStudy, error)
	Delete(id string) error
}

// ProviderFactory builds a provider from a user-supplied API key.
type ProviderFactory func(apiKey, model string) llm.Provider
