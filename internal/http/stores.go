package http

import (
	"context"

	"github.com/mikestefanello/backlite"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/database/cache"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/entities"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/llm"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/passage"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/studies"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/transfer"
)

// This file collects the interfaces HTTP controllers depend on. Each
// controller takes only the one it uses.

// PassageReader fetches passage text.
type PassageReader interface {
	Get(ctx context.Context, reference string) (*passage.Result, error)
	GetPlain(ctx context.Context, reference string) (*passage.Result, error)
}

// StudyService generates, edits and stores studies.
type StudyService interface {
	Generate(ctx context.Context, req studies.GenerateRequest) (*studies.GenerateResult, error)
	Draft(ctx context.Context, req studies.DraftRequest) (*llm.StudyResult, error)
	Enhance(ctx context.Context, req studies.EnhanceRequest) (*llm.CompletionResult, error)

	NewStudy(res *studies.GenerateResult) (*entities.EditableStudy, error)
	SaveStudy(study *entities.EditableStudy) error
	GetStudy(id string) (*entities.EditableStudy, error)
	ListStudies() ([]entities.EditableStudy, error)
	ReplaceStudy(id string, study *entities.EditableStudy) error
	PatchStudy(id string, patches ...studies.Patch) (*entities.EditableStudy, error)
	DeleteStudy(id string) error
}

// ProviderStatus reports which LLM providers are configured.
type ProviderStatus interface {
	Mode() string
	Status() map[string]llm.ProviderStatus
}

// HistoryStore reads and deletes reading history.
type HistoryStore interface {
	List(limit int) ([]entities.ReadingHistoryItem, error)
	Get(id string) (*entities.ReadingHistoryItem, error)
	Delete(id string) error
	Clear() (int64, error)
}

// PreferenceStore is a key/value settings table.
type PreferenceStore interface {
	Get(key string) (*entities.Preference, error)
	Set(key, value string) error
	Delete(key string) error
	All() (map[string]string, error)
}

// TransferService builds export documents and imports them.
type TransferService interface {
	Export() (*transfer.Document, error)
	Import(data []byte, mode transfer.Mode) (*transfer.Report, error)
}

// CacheStore drops cached studies and reports cache size.
type CacheStore interface {
	DeleteStudy(reference string) error
	Stats() (cache.Stats, error)
}

// KeyStore holds the user's own OpenRouter key in their session.
type KeyStore interface {
	PutUserKey(ctx context.Context, apiKey string) error
	UserKey(ctx context.Context) (string, error)
	HasUserKey(ctx context.Context) bool
	DeleteUserKey(ctx context.Context)
}

// TaskQueue enqueues background tasks and reports their status.
type TaskQueue interface {
	Enqueue(task backlite.Task) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping() error
}
