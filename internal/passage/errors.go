package passage

import (
	"errors"
	"fmt"
)

// ErrNotConfigured indicates ESV_API_KEY is not set
var ErrNotConfigured = errors.New("ESV API key not configured")

// ErrInvalidKey indicates the ESV API rejected the key
var ErrInvalidKey = errors.New("invalid ESV API key")

// ErrRateLimited indicates the ESV API rate limit was exceeded
var ErrRateLimited = errors.New("ESV API rate limit exceeded")

// ErrNotFound indicates the ESV API returned no passage for the reference
var ErrNotFound = errors.New("passage not found")

// HTTPError represents any other non-200 response from the ESV API
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("ESV API error: HTTP %d", e.StatusCode)
}

func isRetryable(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500
	}
	return false
}
