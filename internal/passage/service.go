package passage

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/entities"
)

// Fetcher retrieves passage text from an upstream source.
type Fetcher interface {
	Fetch(ctx context.Context, reference string, includeHeadings bool) (string, error)
}

// Cache stores passage text by reference.
type Cache interface {
	GetPassage(reference string) (*entities.CachedPassage, error)
	PutPassage(reference, text string) error
}

// Result is a passage lookup outcome.
type Result struct {
	Reference string `json:"reference"`
	Text      string `json:"text"`
	Cached    bool   `json:"cached"`
}

// Service reads through the passage cache to the ESV API. Only the default
// form (with headings) is cached.
type Service struct {
	fetcher  Fetcher
	cache    Cache
	log      *zap.Logger
	attempts uint
	delay    time.Duration
}

// NewService creates a cache-through passage service.
func NewService(fetcher Fetcher, cache Cache, log *zap.Logger) *Service {
	return &Service{
		fetcher:  fetcher,
		cache:    cache,
		log:      log,
		attempts: 3,
		delay:    time.Second,
	}
}

// WithRetry overrides the retry policy for transient upstream failures.
func (s *Service) WithRetry(attempts uint, delay time.Duration) *Service {
	// retry-go treats 0 attempts as unlimited
	if attempts == 0 {
		attempts = 1
	}
	s.attempts = attempts
	s.delay = delay
	return s
}

// Get returns the passage text with headings, from cache when present.
func (s *Service) Get(ctx context.Context, reference string) (*Result, error) {
	cached, err := s.cache.GetPassage(reference)
	if err == nil {
		return &Result{Reference: reference, Text: cached.Text, Cached: true}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Warn("passage cache read failed", zap.String("reference", reference), zap.Error(err))
	}

	text, err := s.fetch(ctx, reference, true)
	if err != nil {
		return nil, err
	}

	if err := s.cache.PutPassage(reference, text); err != nil {
		s.log.Warn("passage cache write failed", zap.String("reference", reference), zap.Error(err))
	}
	return &Result{Reference: reference, Text: text}, nil
}

// GetPlain returns the passage without headings or passage references. It
// always goes upstream.
func (s *Service) GetPlain(ctx context.Context, reference string) (*Result, error) {
	text, err := s.fetch(ctx, reference, false)
	if err != nil {
		return nil, err
	}
	return &Result{Reference: reference, Text: text}, nil
}

func (s *Service) fetch(ctx context.Context, reference string, headings bool) (string, error) {
	var text string
	err := retry.Do(
		func() error {
			var err error
			text, err = s.fetcher.Fetch(ctx, reference, headings)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.Delay(s.delay),
		retry.RetryIf(isRetryable),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			s.log.Info("retrying ESV request", zap.String("reference", reference), zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	return text, err
}
