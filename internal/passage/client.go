// Package passage fetches Bible passage text from the ESV API and keeps a
// reference-keyed cache of the results.
package passage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/config"
)

const defaultTimeout = 30 * time.Second

// Client talks to the ESV passage text endpoint.
// API docs: https://api.esv.org/docs/passage-text/
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates an ESV client from configuration.
func NewClient(cfg config.ESV) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = config.DefaultESVAPIURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type esvResponse struct {
	Query     string   `json:"query"`
	Canonical string   `json:"canonical"`
	Passages  []string `json:"passages"`
}

// Fetch returns the text of the first passage matching reference.
func (c *Client) Fetch(ctx context.Context, reference string, includeHeadings bool) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse ESV URL: %w", err)
	}
	headings := strconv.FormatBool(includeHeadings)
	q := u.Query()
	q.Set("q", reference)
	q.Set("include-headings", headings)
	q.Set("include-footnotes", "false")
	q.Set("include-verse-numbers", "true")
	q.Set("include-short-copyright", "true")
	q.Set("include-passage-references", headings)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch passage: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", ErrInvalidKey
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		return "", &HTTPError{StatusCode: resp.StatusCode}
	}

	var body esvResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(body.Passages) == 0 || strings.TrimSpace(body.Passages[0]) == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, reference)
	}
	return strings.TrimSpace(body.Passages[0]), nil
}
