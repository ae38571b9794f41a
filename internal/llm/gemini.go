package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/config"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/llm/prompts"
)

// GeminiProvider implements Provider using Google's Gemini API.
type GeminiProvider struct {
	model  string
	client *genai.Client
	err    error
}

// NewGemini creates the Gemini provider. A client construction failure makes
// the provider unavailable rather than failing startup.
func NewGemini(cfg ProviderConfig) *GeminiProvider {
	if cfg.Model == "" {
		cfg.Model = config.DefaultGeminiModel
	}
	p := &GeminiProvider{model: cfg.Model}
	if cfg.APIKey == "" {
		return p
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.httpClient(),
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	p.client, p.err = genai.NewClient(context.Background(), clientCfg)
	if p.err != nil {
		p.err = fmt.Errorf("failed to create GenAI client: %w", p.err)
	}
	return p
}

func (p *GeminiProvider) Name() string    { return ProviderGemini }
func (p *GeminiProvider) Model() string   { return p.model }
func (p *GeminiProvider) Available() bool { return p.client != nil }

func (p *GeminiProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	return p.generate(ctx, req, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(prompts.SystemJSON, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr[float32](studyTemperature),
	})
}

func (p *GeminiProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	return p.generate(ctx, req, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(prompts.SystemPlainText, genai.RoleUser),
		MaxOutputTokens:   completionMaxTokens,
	})
}

func (p *GeminiProvider) generate(ctx context.Context, req *Request, cfg *genai.GenerateContentConfig) (*Response, error) {
	if p.client == nil {
		if p.err != nil {
			return nil, p.err
		}
		return nil, ErrNotConfigured
	}

	model := pickModel(req.Model, p.model)
	resp, err := p.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return nil, mapGeminiError(err)
	}

	out := &Response{Text: strings.TrimSpace(resp.Text()), Model: model}
	if len(resp.Candidates) > 0 {
		out.Truncated = resp.Candidates[0].FinishReason == genai.FinishReasonMaxTokens
	}
	if resp.UsageMetadata != nil {
		out.InputTokens = int64(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}

func mapGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{Provider: ProviderGemini, StatusCode: apiErr.Code, Message: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &UpstreamError{Provider: ProviderGemini, StatusCode: apiErrPtr.Code, Message: apiErrPtr.Message}
	}
	return fmt.Errorf("gemini: %w", err)
}
