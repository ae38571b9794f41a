// Package llm generates Bible studies and free-text completions through a set
// of hosted LLM providers (Groq, OpenRouter, Gemini, Claude) with fallback.
package llm

import (
	"context"
	"net/http"
	"time"
)

// Provider names, in default fallback order.
const (
	ProviderGroq       = "groq"
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
	ProviderClaude     = "claude"
)

// DefaultOrder is the auto-mode fallback order: fastest free tier first,
// paid last.
var DefaultOrder = []string{ProviderGroq, ProviderOpenRouter, ProviderGemini, ProviderClaude}

// Provider is a hosted chat model.
type Provider interface {
	Name() string
	// Model is the default model used when a request does not override it.
	Model() string
	// Available reports whether the provider has credentials.
	Available() bool
	// Generate asks for a JSON study document.
	Generate(ctx context.Context, req *Request) (*Response, error)
	// Complete asks for plain text.
	Complete(ctx context.Context, req *Request) (*Response, error)
}

type Request struct {
	Prompt string
	Model  string // Optional override of the provider default
}

type Response struct {
	Text         string
	Model        string
	Truncated    bool // Output hit the max token limit
	InputTokens  int64
	OutputTokens int64
}

// ProviderConfig holds the settings shared by all provider implementations.
type ProviderConfig struct {
	APIKey     string
	Model      string
	BaseURL    string        // Optional (tests)
	Timeout    time.Duration // HTTP timeout
	HTTPClient *http.Client  // Optional (tests)
}

func (c ProviderConfig) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &http.Client{Timeout: timeout}
}

func pickModel(override, fallback string) string {
	if override != "" {
		return override
	}
	return fallback
}

const (
	studyTemperature     = 0.6
	studyMaxTokens       = 3000
	completionMaxTokens  = 2000
	claudeStudyMaxTokens = 20000
)
