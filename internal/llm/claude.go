package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/config"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/llm/prompts"
)

// ClaudeProvider implements Provider using Anthropic's Messages API.
type ClaudeProvider struct {
	model  string
	apiKey string
	client anthropic.Client
}

func NewClaude(cfg ProviderConfig) *ClaudeProvider {
	if cfg.Model == "" {
		cfg.Model = config.DefaultClaudeModel
	}
	opts := []anthropicoption.RequestOption{
		anthropicoption.WithAPIKey(cfg.APIKey),
		anthropicoption.WithHTTPClient(cfg.httpClient()),
		anthropicoption.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, anthropicoption.WithBaseURL(cfg.BaseURL))
	}
	return &ClaudeProvider{
		model:  cfg.Model,
		apiKey: cfg.APIKey,
		client: anthropic.NewClient(opts...),
	}
}

func (p *ClaudeProvider) Name() string    { return ProviderClaude }
func (p *ClaudeProvider) Model() string   { return p.model }
func (p *ClaudeProvider) Available() bool { return p.apiKey != "" }

// Generate uses a large token budget with single-line JSON rules; long
// passages still occasionally hit the limit, which is reported as Truncated.
func (p *ClaudeProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	return p.send(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(pickModel(req.Model, p.model)),
		MaxTokens: claudeStudyMaxTokens,
		System:    []anthropic.TextBlockParam{{Text: prompts.SystemClaude}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
}

func (p *ClaudeProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	return p.send(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(pickModel(req.Model, p.model)),
		MaxTokens: completionMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
}

func (p *ClaudeProvider) send(ctx context.Context, params anthropic.MessageNewParams) (*Response, error) {
	if !p.Available() {
		return nil, ErrNotConfigured
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, &UpstreamError{Provider: ProviderClaude, StatusCode: apiErr.StatusCode, Message: apiErr.Error()}
		}
		return nil, err
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return &Response{
		Text:         strings.TrimSpace(text.String()),
		Model:        string(msg.Model),
		Truncated:    msg.StopReason == anthropic.StopReasonMaxTokens,
		InputTokens:  msg.Usage.InputTokens,
		OutputTokens: msg.Usage.OutputTokens,
	}, nil
}
