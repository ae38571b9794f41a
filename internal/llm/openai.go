package llm

import (
	"context"
	"errors"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/config"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/llm/prompts"
)

const (
	GroqBaseURL       = "https://api.groq.com/openai/v1"
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"

	openRouterReferer = "https://bible-study-scribby.app"
	openRouterTitle   = "Bible Study Scribby"
)

// ChatProvider implements Provider for OpenAI-compatible chat completion APIs.
type ChatProvider struct {
	name     string
	model    string
	jsonMode bool
	apiKey   string
	client   openai.Client
}

func newChatProvider(name, defaultBaseURL string, jsonMode bool, cfg ProviderConfig, extra ...option.RequestOption) *ChatProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(cfg.httpClient()),
		// Retries happen in the router so that fallback sees every failure.
		option.WithMaxRetries(0),
	}
	opts = append(opts, extra...)

	return &ChatProvider{
		name:     name,
		model:    cfg.Model,
		jsonMode: jsonMode,
		apiKey:   cfg.APIKey,
		client:   openai.NewClient(opts...),
	}
}

// NewGroq creates the Groq provider. Groq supports JSON mode.
func NewGroq(cfg ProviderConfig) *ChatProvider {
	if cfg.Model == "" {
		cfg.Model = config.DefaultGroqModel
	}
	return newChatProvider(ProviderGroq, GroqBaseURL, true, cfg)
}

// NewOpenRouter creates the OpenRouter provider. It is also built per request
// from a user-supplied key.
func NewOpenRouter(cfg ProviderConfig) *ChatProvider {
	if cfg.Model == "" {
		cfg.Model = config.DefaultOpenRouterModel
	}
	return newChatProvider(ProviderOpenRouter, OpenRouterBaseURL, false, cfg,
		option.WithHeader("HTTP-Referer", openRouterReferer),
		option.WithHeader("X-Title", openRouterTitle),
	)
}

func (p *ChatProvider) Name() string    { return p.name }
func (p *ChatProvider) Model() string   { return p.model }
func (p *ChatProvider) Available() bool { return p.apiKey != "" }

func (p *ChatProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(pickModel(req.Model, p.model)),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompts.SystemJSON),
			openai.UserMessage(req.Prompt),
		},
		Temperature: openai.Float(studyTemperature),
		MaxTokens:   openai.Int(studyMaxTokens),
	}
	if p.jsonMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}
	return p.chat(ctx, params)
}

func (p *ChatProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(pickModel(req.Model, p.model)),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompts.SystemPlainText),
			openai.UserMessage(req.Prompt),
		},
		Temperature: openai.Float(studyTemperature),
		MaxTokens:   openai.Int(completionMaxTokens),
	}
	return p.chat(ctx, params)
}

func (p *ChatProvider) chat(ctx context.Context, params openai.ChatCompletionNewParams) (*Response, error) {
	if !p.Available() {
		return nil, ErrNotConfigured
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, p.mapError(err)
	}
	if len(completion.Choices) == 0 {
		return nil, ErrEmptyCompletion
	}

	choice := completion.Choices[0]
	return &Response{
		Text:         strings.TrimSpace(choice.Message.Content),
		Model:        completion.Model,
		Truncated:    choice.FinishReason == "length",
		InputTokens:  completion.Usage.PromptTokens,
		OutputTokens: completion.Usage.CompletionTokens,
	}, nil
}

func (p *ChatProvider) mapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &UpstreamError{Provider: p.name, StatusCode: apiErr.StatusCode, Message: apiErr.Message}
	}
	return err
}
