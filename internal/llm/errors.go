package llm

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrRateLimited     = errors.New("rate limited by LLM provider")
	ErrPaymentRequired = errors.New("LLM provider requires payment")
	ErrUnauthorized    = errors.New("LLM provider rejected the API key")
	ErrNotConfigured   = errors.New("LLM provider not configured")
	ErrUnknownProvider = errors.New("unknown LLM provider")
	ErrNoProviders     = errors.New("no LLM providers configured")
	ErrAllFailed       = errors.New("all LLM providers failed")
	ErrTruncated       = errors.New("LLM response truncated")
	ErrInvalidResponse = errors.New("LLM response is not a valid study")
	ErrEmptyCompletion = errors.New("LLM returned an empty completion")
)

// UpstreamError is a non-2xx response from a provider API. It unwraps to the
// sentinel matching its status code, so errors.Is(err, ErrRateLimited) works.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error (status %d)", e.Provider, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusPaymentRequired:
		return ErrPaymentRequired
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	}
	return nil
}

// Retryable reports whether another attempt against the same provider may
// succeed: rate limits and server errors.
func Retryable(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var up *UpstreamError
	if errors.As(err, &up) {
		return up.StatusCode >= 500
	}
	return false
}

// Hint returns user-facing retry guidance for an LLM failure.
func Hint(err error) string {
	switch {
	case errors.Is(err, ErrRateLimited):
		return "The AI provider is rate limiting requests. Wait a minute and retry."
	case errors.Is(err, ErrPaymentRequired):
		return "The AI provider requires payment. Check your credits or API key."
	case errors.Is(err, ErrUnauthorized):
		return "The AI provider rejected the API key. Check the key and try again."
	case errors.Is(err, ErrTruncated):
		return "Try a shorter passage or fewer verses."
	case errors.Is(err, ErrNoProviders), errors.Is(err, ErrNotConfigured):
		return "Add at least one API key (GROQ_API_KEY, OPENROUTER_API_KEY, GOOGLE_API_KEY, or ANTHROPIC_API_KEY)."
	case errors.Is(err, ErrAllFailed), errors.Is(err, ErrInvalidResponse):
		return "Please try again later or check your API keys."
	}
	return ""
}
