package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/config"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/entities"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/llm/prompts"
)

// ProviderStatus is one entry of Router.Status.
type ProviderStatus struct {
	Available bool   `json:"available"`
	Model     string `json:"model"`
}

// StudyInput is everything needed to generate a study.
type StudyInput struct {
	Reference   string
	PassageText string
	FlowContext *entities.FlowContext
	Provider    string // Empty uses the router mode
	Model       string // Optional model override
}

// StudyResult is a generated study and where it came from.
type StudyResult struct {
	Study    *entities.Study
	Provider string
	Model    string
}

// CompletionResult is a free-text completion and where it came from.
type CompletionResult struct {
	Text     string
	Provider string
	Model    string
}

// Router selects providers by name or, in auto mode, tries every available
// provider in order until one succeeds.
type Router struct {
	providers map[string]Provider
	order     []string
	mode      string
	log       *zap.Logger
	attempts  uint
	delay     time.Duration
}

// NewRouter creates a router over providers, keeping their order for auto
// mode. mode is config.ProviderAuto or a provider name.
func NewRouter(mode string, log *zap.Logger, providers ...Provider) *Router {
	r := &Router{
		providers: make(map[string]Provider, len(providers)),
		mode:      strings.ToLower(strings.TrimSpace(mode)),
		log:       log,
		attempts:  3,
		delay:     2 * time.Second,
	}
	if r.mode == "" {
		r.mode = config.ProviderAuto
	}
	for _, p := range providers {
		r.providers[p.Name()] = p
		r.order = append(r.order, p.Name())
	}
	return r
}

// NewRouterFromConfig builds the four hosted providers from configuration.
func NewRouterFromConfig(cfg config.LLM, log *zap.Logger) *Router {
	base := func(key, model string) ProviderConfig {
		return ProviderConfig{APIKey: key, Model: model, Timeout: cfg.Timeout}
	}
	r := NewRouter(cfg.Provider, log,
		NewGroq(base(cfg.GroqAPIKey, cfg.GroqModel)),
		NewOpenRouter(base(cfg.OpenRouterAPIKey, cfg.OpenRouterModel)),
		NewGemini(base(cfg.GoogleAPIKey, cfg.GeminiModel)),
		NewClaude(base(cfg.AnthropicAPIKey, cfg.ClaudeModel)),
	)
	return r.WithRetry(uint(cfg.MaxRetries)+1, 2*time.Second)
}

// WithRetry sets how many attempts each provider gets for retryable errors.
func (r *Router) WithRetry(attempts uint, delay time.Duration) *Router {
	if attempts == 0 {
		attempts = 1
	}
	r.attempts = attempts
	r.delay = delay
	return r
}

// Mode returns "auto" or the pinned provider name.
func (r *Router) Mode() string {
	return r.mode
}

// Status reports availability and default model of every provider.
func (r *Router) Status() map[string]ProviderStatus {
	out := make(map[string]ProviderStatus, len(r.order))
	for _, name := range r.order {
		p := r.providers[name]
		out[name] = ProviderStatus{Available: p.Available(), Model: p.Model()}
	}
	return out
}

// Available returns the configured providers in fallback order.
func (r *Router) Available() []Provider {
	var out []Provider
	for _, name := range r.order {
		if p := r.providers[name]; p.Available() {
			out = append(out, p)
		}
	}
	return out
}

// Lookup returns a configured provider by name.
func (r *Router) Lookup(name string) (Provider, error) {
	p, ok := r.providers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	if !p.Available() {
		return nil, fmt.Errorf("%w: %s", ErrNotConfigured, name)
	}
	return p, nil
}

// candidates resolves which providers to try for a request.
func (r *Router) candidates(requested string) ([]Provider, error) {
	name := strings.ToLower(strings.TrimSpace(requested))
	if name == "" {
		name = r.mode
	}
	if name != config.ProviderAuto {
		p, err := r.Lookup(name)
		if err != nil {
			return nil, err
		}
		return []Provider{p}, nil
	}
	available := r.Available()
	if len(available) == 0 {
		return nil, ErrNoProviders
	}
	return available, nil
}

// GenerateStudy produces a study, falling back across providers in auto mode.
func (r *Router) GenerateStudy(ctx context.Context, in StudyInput) (*StudyResult, error) {
	providers, err := r.candidates(in.Provider)
	if err != nil {
		return nil, err
	}
	return r.generateWith(ctx, providers, in)
}

// GenerateStudyWith produces a study using exactly one provider, e.g. one
// built from a user-supplied key.
func (r *Router) GenerateStudyWith(ctx context.Context, p Provider, in StudyInput) (*StudyResult, error) {
	return r.generateWith(ctx, []Provider{p}, in)
}

func (r *Router) generateWith(ctx context.Context, providers []Provider, in StudyInput) (*StudyResult, error) {
	req := &Request{
		Prompt: prompts.Study(in.Reference, in.PassageText, in.FlowContext),
		Model:  in.Model,
	}

	var lastErr error
	for _, p := range providers {
		r.log.Info("generating study", zap.String("provider", p.Name()), zap.String("reference", in.Reference))

		study, model, err := r.generateOne(ctx, p, req)
		if err == nil {
			r.log.Info("study generated", zap.String("provider", p.Name()), zap.String("model", model), zap.String("reference", in.Reference))
			return &StudyResult{Study: study, Provider: p.Name(), Model: model}, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		r.log.Warn("provider failed", zap.String("provider", p.Name()), zap.Error(err))
		lastErr = err
	}

	if len(providers) == 1 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("%w: %w", ErrAllFailed, lastErr)
}

func (r *Router) generateOne(ctx context.Context, p Provider, req *Request) (*entities.Study, string, error) {
	resp, err := r.call(ctx, p, p.Generate, req)
	if err != nil {
		return nil, "", err
	}

	study, err := ParseStudy(resp.Text)
	if err == nil {
		if resp.Truncated {
			r.log.Info("recovered truncated response", zap.String("provider", p.Name()))
		}
		return study, resp.Model, nil
	}
	if resp.Truncated {
		return nil, "", fmt.Errorf("%w (%d tokens). Try a shorter passage or fewer verses", ErrTruncated, resp.OutputTokens)
	}
	return nil, "", fmt.Errorf("%s: %w", p.Name(), err)
}

// Complete runs a free-text completion with the same provider selection as
// GenerateStudy.
func (r *Router) Complete(ctx context.Context, prompt, provider, model string) (*CompletionResult, error) {
	providers, err := r.candidates(provider)
	if err != nil {
		return nil, err
	}
	return r.completeWith(ctx, providers, prompt, model)
}

// CompleteWith runs a completion using exactly one provider.
func (r *Router) CompleteWith(ctx context.Context, p Provider, prompt, model string) (*CompletionResult, error) {
	return r.completeWith(ctx, []Provider{p}, prompt, model)
}

func (r *Router) completeWith(ctx context.Context, providers []Provider, prompt, model string) (*CompletionResult, error) {
	req := &Request{Prompt: prompt, Model: model}

	var lastErr error
	for _, p := range providers {
		resp, err := r.call(ctx, p, p.Complete, req)
		if err == nil && resp.Text == "" {
			err = ErrEmptyCompletion
		}
		if err == nil {
			return &CompletionResult{Text: resp.Text, Provider: p.Name(), Model: resp.Model}, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.log.Warn("completion failed", zap.String("provider", p.Name()), zap.Error(err))
		lastErr = err
	}

	if len(providers) == 1 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("%w: %w", ErrAllFailed, lastErr)
}

func (r *Router) call(ctx context.Context, p Provider, fn func(context.Context, *Request) (*Response, error), req *Request) (*Response, error) {
	var resp *Response
	err := retry.Do(
		func() error {
			var err error
			resp, err = fn(ctx, req)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(r.attempts),
		retry.Delay(r.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(Retryable),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			r.log.Info("retrying provider", zap.String("provider", p.Name()), zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	return resp, err
}
