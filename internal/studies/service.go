// Package studies generates Bible studies and manages the editable copies
// users save: generation goes passage → cache → LLM → cache → history, and
// editing mutates an EditableStudy in place before validation and storage.
package studies

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/bible"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/entities"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/llm"
)

// ErrInvalidRequest wraps input validation failures (HTTP 400).
var ErrInvalidRequest = errors.New("invalid request")

type GenerateRequest struct {
	Book        string                `json:"book"`
	Chapter     int                   `json:"chapter"`
	StartVerse  int                   `json:"start_verse,omitempty"`
	EndVerse    int                   `json:"end_verse,omitempty"`
	FlowContext *entities.FlowContext `json:"flowContext,omitempty"`
	Provider    string                `json:"provider,omitempty"`
	Model       string                `json:"model,omitempty"`
	Force       bool                  `json:"force,omitempty"`
	// UserKey is a user-supplied OpenRouter key; when set it replaces the
	// server-side providers.
	UserKey string `json:"-"`
	// Prefetch fills the cache without adding a history entry.
	Prefetch bool `json:"-"`
}

type GenerateResult struct {
	Reference   string          `json:"reference"`
	PassageText string          `json:"passage_text"`
	Study       *entities.Study `json:"study"`
	Provider    string          `json:"provider"`
	Model       string          `json:"model,omitempty"`
	Cached      bool            `json:"cached"`
}

// DraftRequest generates a study for passage text the caller already has.
// Drafts are neither cached nor recorded in history.
type DraftRequest struct {
	Reference   string                `json:"reference"`
	PassageText string                `json:"passageText"`
	FlowContext *entities.FlowContext `json:"flowContext,omitempty"`
	Provider    string                `json:"provider,omitempty"`
	Model       string                `json:"model,omitempty"`
	UserKey     string                `json:"-"`
}

type EnhanceRequest struct {
	Prompt   string `json:"prompt"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
	UserKey  string `json:"-"`
}

// Service generates studies and manages saved ones.
type Service struct {
	passages  PassageSource
	generator Generator
	cache     StudyCache
	history   HistoryWriter
	store     StudyStore
	byok      ProviderFactory
	log       *zap.Logger
}

func NewService(passages PassageSource, generator Generator, cache StudyCache, history HistoryWriter, store StudyStore, log *zap.Logger) *Service {
	return &Service{
		passages:  passages,
		generator: generator,
		cache:     cache,
		history:   history,
		store:     store,
		byok: func(apiKey, model string) llm.Provider {
			return llm.NewOpenRouter(llm.ProviderConfig{APIKey: apiKey, Model: model})
		},
		log: log,
	}
}

// WithProviderFactory replaces how user-key providers are built.
func (s *Service) WithProviderFactory(f ProviderFactory) *Service {
	s.byok = f
	return s
}

// Generate validates the passage, fetches its text and returns a study. The
// cached study for the reference is used unless Force is set or a flow
// context asks for a tailored one.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	book, err := bible.ValidateRange(req.Book, req.Chapter, req.StartVerse, req.EndVerse)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	reference := bible.Reference(book.Name, req.Chapter, req.StartVerse, req.EndVerse)

	text, err := s.passages.Get(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("fetch passage %s: %w", reference, err)
	}

	result := &GenerateResult{Reference: reference, PassageText: text.Text}
	tailored := !req.FlowContext.Empty()

	if !req.Force && !tailored {
		if cached, ok := s.cachedStudy(reference); ok {
			result.Study = cached.study
			result.Provider = cached.provider
			result.Model = cached.model
			result.Cached = true
			s.record(book.Name, req, reference, cached.provider)
			return result, nil
		}
	}

	in := llm.StudyInput{
		Reference:   reference,
		PassageText: text.Text,
		FlowContext: req.FlowContext,
		Provider:    req.Provider,
		Model:       req.Model,
	}
	generated, err := s.generate(ctx, in, req.UserKey)
	if err != nil {
		return nil, err
	}
	result.Study = generated.Study
	result.Provider = generated.Provider
	result.Model = generated.Model

	if !tailored {
		if err := s.cache.PutStudy(reference, generated.Study, generated.Provider, generated.Model); err != nil {
			s.log.Warn("study cache write failed", zap.String("reference", reference), zap.Error(err))
		}
	}
	s.record(book.Name, req, reference, generated.Provider)
	return result, nil
}

// Draft generates a study for the given text without touching cache or history.
func (s *Service) Draft(ctx context.Context, req DraftRequest) (*llm.StudyResult, error) {
	if req.Reference == "" || req.PassageText == "" {
		return nil, fmt.Errorf("%w: reference and passage text are required", ErrInvalidRequest)
	}
	return s.generate(ctx, llm.StudyInput{
		Reference:   req.Reference,
		PassageText: req.PassageText,
		FlowContext: req.FlowContext,
		Provider:    req.Provider,
		Model:       req.Model,
	}, req.UserKey)
}

// Enhance runs a free-text completion, used to rewrite sections and questions.
func (s *Service) Enhance(ctx context.Context, req EnhanceRequest) (*llm.CompletionResult, error) {
	if req.Prompt == "" {
		return nil, fmt.Errorf("%w: prompt is required", ErrInvalidRequest)
	}
	if req.UserKey != "" {
		return s.generator.CompleteWith(ctx, s.byok(req.UserKey, req.Model), req.Prompt, req.Model)
	}
	return s.generator.Complete(ctx, req.Prompt, req.Provider, req.Model)
}

func (s *Service) generate(ctx context.Context, in llm.StudyInput, userKey string) (*llm.StudyResult, error) {
	if userKey != "" {
		return s.generator.GenerateStudyWith(ctx, s.byok(userKey, in.Model), in)
	}
	return s.generator.GenerateStudy(ctx, in)
}

type cachedEntry struct {
	study    *entities.Study
	provider string
	model    string
}

func (s *Service) cachedStudy(reference string) (cachedEntry, bool) {
	row, err := s.cache.GetStudy(reference)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("study cache read failed", zap.String("reference", reference), zap.Error(err))
		}
		return cachedEntry{}, false
	}
	study, err := row.Study()
	if err != nil {
		s.log.Warn("discarding unreadable cached study", zap.String("reference", reference), zap.Error(err))
		return cachedEntry{}, false
	}
	return cachedEntry{study: study, provider: row.Provider, model: row.Model}, true
}

func (s *Service) record(book string, req GenerateRequest, reference, provider string) {
	if req.Prefetch {
		return
	}
	item := &entities.ReadingHistoryItem{
		Book:       book,
		Chapter:    req.Chapter,
		StartVerse: req.StartVerse,
		EndVerse:   req.EndVerse,
		Reference:  reference,
		Provider:   provider,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.history.Add(item); err != nil {
		s.log.Warn("history write failed", zap.String("reference", reference), zap.Error(err))
	}
}
