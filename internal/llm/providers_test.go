package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/config"
)

func chatCompletionHandler(t *testing.T, content, finish string, check func(body map[string]any, r *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if check != nil {
			check(body, r)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   body["model"],
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": finish,
			}},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30},
		})
	}
}

func TestGroq_GenerateUsesJSONMode(t *testing.T) {
	server := httptest.NewServer(chatCompletionHandler(t, validStudyJSON, "stop", func(body map[string]any, r *http.Request) {
		assert.Equal(t, "Bearer groq-key", r.Header.Get("Authorization"))
		assert.Equal(t, config.DefaultGroqModel, body["model"])
		assert.Equal(t, 0.6, body["temperature"])
		assert.EqualValues(t, 3000, body["max_tokens"])
		assert.Equal(t, map[string]any{"type": "json_object"}, body["response_format"])
	}))
	defer server.Close()

	p := NewGroq(ProviderConfig{APIKey: "groq-key", BaseURL: server.URL})
	resp, err := p.Generate(context.Background(), &Request{Prompt: "study"})
	require.NoError(t, err)

	assert.False(t, resp.Truncated)
	assert.EqualValues(t, 20, resp.OutputTokens)
	_, err = ParseStudy(resp.Text)
	assert.NoError(t, err)
}

func TestOpenRouter_SendsAttributionHeaders(t *testing.T) {
	server := httptest.NewServer(chatCompletionHandler(t, "plain text", "length", func(body map[string]any, r *http.Request) {
		assert.Equal(t, "https://bible-study-scribby.app", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "Bible Study Scribby", r.Header.Get("X-Title"))
		assert.Equal(t, "custom/model", body["model"])
		assert.Nil(t, body["response_format"])
	}))
	defer server.Close()

	p := NewOpenRouter(ProviderConfig{APIKey: "user-key", BaseURL: server.URL})
	resp, err := p.Complete(context.Background(), &Request{Prompt: "rewrite", Model: "custom/model"})
	require.NoError(t, err)
	assert.Equal(t, "plain text", resp.Text)
	assert.True(t, resp.Truncated)
}

func TestChatProvider_MapsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error": {"message": "Insufficient credits"}}`))
	}))
	defer server.Close()

	p := NewOpenRouter(ProviderConfig{APIKey: "user-key", BaseURL: server.URL})
	_, err := p.Generate(context.Background(), &Request{Prompt: "study"})

	assert.ErrorIs(t, err, ErrPaymentRequired)
	var up *UpstreamError
	require.ErrorAs(t, err, &up)
	assert.Equal(t, ProviderOpenRouter, up.Provider)
}

func TestClaude_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "claude-key", r.Header.Get("X-Api-Key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 20000, body["max_tokens"])
		assert.Equal(t, config.DefaultClaudeModel, body["model"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":            "msg_1",
			"type":          "message",
			"role":          "assistant",
			"model":         body["model"],
			"content":       []map[string]any{{"type": "text", "text": validStudyJSON}},
			"stop_reason":   "max_tokens",
			"stop_sequence": nil,
			"usage":         map[string]any{"input_tokens": 100, "output_tokens": 20000},
		})
	}))
	defer server.Close()

	p := NewClaude(ProviderConfig{APIKey: "claude-key", BaseURL: server.URL})
	resp, err := p.Generate(context.Background(), &Request{Prompt: "study"})
	require.NoError(t, err)

	assert.True(t, resp.Truncated)
	assert.EqualValues(t, 20000, resp.OutputTokens)
	assert.Equal(t, config.DefaultClaudeModel, resp.Model)
}

func TestProviders_Unconfigured(t *testing.T) {
	for _, p := range []Provider{
		NewGroq(ProviderConfig{}),
		NewOpenRouter(ProviderConfig{}),
		NewGemini(ProviderConfig{}),
		NewClaude(ProviderConfig{}),
	} {
		t.Run(p.Name(), func(t *testing.T) {
			assert.False(t, p.Available())
			assert.NotEmpty(t, p.Model())
			_, err := p.Generate(context.Background(), &Request{Prompt: "x"})
			assert.ErrorIs(t, err, ErrNotConfigured)
		})
	}
}
