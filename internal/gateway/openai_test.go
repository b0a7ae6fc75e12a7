package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillsoft/paperscope/internal/config"
)

// chatRequest mirrors the fields of the chat completion request the
// provider is expected to send.
type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

func TestOpenAIProvider_Generate(t *testing.T) {
	var got chatRequest

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []map[string]any{
				{
					"index":         0,
					"message":       map[string]any{"role": "assistant", "content": `{"ok": true}`},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]any{
				"prompt_tokens":     42,
				"completion_tokens": 7,
				"total_tokens":      49,
			},
		})
	}))
	defer ts.Close()

	p := newOpenAIProvider(config.OpenAIConfig{Key: "test-key", BaseURL: ts.URL, Model: "gpt-4o-mini"})

	res, err := p.Generate(context.Background(), Request{
		System:      "You are an analyst.",
		Prompt:      "Summarize.",
		MaxTokens:   2048,
		Temperature: 0.3,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok": true}`, res.Raw)
	assert.Equal(t, 42, res.Usage.InputTokens)
	assert.Equal(t, 7, res.Usage.OutputTokens)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "You are an analyst.", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, 2048, got.MaxTokens)
	assert.InDelta(t, 0.3, got.Temperature, 1e-3)
}

func TestOpenAIProvider_NoSystemMessage(t *testing.T) {
	var got chatRequest

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"id":     "chatcmpl-2",
			"object": "chat.completion",
			"choices": []map[string]any{
				{"index": 0, "message": map[string]any{"role": "assistant", "content": "hi"}, "finish_reason": "stop"},
			},
		})
	}))
	defer ts.Close()

	p := newOpenAIProvider(config.OpenAIConfig{Key: "k", BaseURL: ts.URL, Model: "m"})

	_, err := p.Generate(context.Background(), Request{Prompt: "hello"})
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
}

func TestOpenAIProvider_RateLimitCarriesStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"error": map[string]any{
				"message": "Rate limit reached",
				"type":    "requests",
			},
		})
	}))
	defer ts.Close()

	p := newOpenAIProvider(config.OpenAIConfig{Key: "k", BaseURL: ts.URL, Model: "m"})

	_, err := p.Generate(context.Background(), Request{Prompt: "hello"})
	require.Error(t, err)

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusTooManyRequests, pe.Status)
	assert.Equal(t, "openai", pe.Provider)
}

func TestOpenAIProvider_EmptyChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"id":      "chatcmpl-3",
			"object":  "chat.completion",
			"choices": []map[string]any{},
		})
	}))
	defer ts.Close()

	p := newOpenAIProvider(config.OpenAIConfig{Key: "k", BaseURL: ts.URL, Model: "m"})

	_, err := p.Generate(context.Background(), Request{Prompt: "hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}

func TestOpenAIStatus(t *testing.T) {
	assert.Equal(t, 429, openaiStatus(&openai.APIError{HTTPStatusCode: 429}))
	assert.Equal(t, 503, openaiStatus(&openai.RequestError{HTTPStatusCode: 503}))
	assert.Equal(t, 0, openaiStatus(assert.AnError))
}
