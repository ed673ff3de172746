package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/factchecker/claimcheck/internal/config"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryConstructBackend_Disabled(t *testing.T) {
	for _, name := range []string{"", "noop", "NONE", "disabled"} {
		p, err := TryConstructBackend(context.Background(), &config.LLMConfig{Provider: name}, time.Second)
		assert.Nil(t, p)
		assert.ErrorIs(t, err, ErrDisabled, "provider %q", name)
	}
}

func TestTryConstructBackend_Failures(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.LLMConfig
	}{
		{"unknown provider", config.LLMConfig{Provider: "mystery"}},
		{"openai without key", config.LLMConfig{Provider: "openai"}},
		{"anthropic without key", config.LLMConfig{Provider: "anthropic"}},
		{"gemini without key", config.LLMConfig{Provider: "gemini"}},
		{"ollama unreachable", config.LLMConfig{Provider: "ollama", OllamaURL: "http://127.0.0.1:1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := TryConstructBackend(context.Background(), &tt.cfg, time.Second)
			assert.Nil(t, p)
			require.Error(t, err)
			assert.NotErrorIs(t, err, ErrDisabled)
		})
	}
}

func TestOpenAIProvider_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openai.ChatCompletionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		if assert.Len(t, req.Messages, 1) {
			assert.Equal(t, "Is water wet?", req.Messages[0].Content)
		}

		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:     "chatcmpl-123",
			Object: "chat.completion",
			Model:  "gpt-4o-mini",
			Choices: []openai.ChatCompletionChoice{{
				Message:      openai.ChatCompletionMessage{Role: "assistant", Content: "TRUE\nWater is wet."},
				FinishReason: "stop",
			}},
		})
	}))
	defer server.Close()

	p, err := TryConstructBackend(context.Background(), &config.LLMConfig{
		Provider: "openai",
		APIKey:   "test-key",
		BaseURL:  server.URL,
	}, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	out, err := p.Complete(context.Background(), "Is water wet?")
	require.NoError(t, err)
	assert.Equal(t, "TRUE\nWater is wet.", out)
}

func TestOpenAIProvider_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{ID: "x"})
	}))
	defer server.Close()

	p, err := NewOpenAIProvider(&config.LLMConfig{APIKey: "k", BaseURL: server.URL}, time.Second)
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), "hi")
	assert.Error(t, err)
}

func TestAnthropicProvider_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "ant-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var req anthropicRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-3-5-sonnet-20240620", req.Model)
		assert.InDelta(t, 0.2, req.Temperature, 1e-9)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"FALSE\nNope."}]}`))
	}))
	defer server.Close()

	p, err := NewAnthropicProvider(&config.LLMConfig{APIKey: "ant-key", BaseURL: server.URL, Temperature: 0.2}, time.Second)
	require.NoError(t, err)

	out, err := p.Complete(context.Background(), "claim")
	require.NoError(t, err)
	assert.Equal(t, "FALSE\nNope.", out)
}

func TestAnthropicProvider_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer server.Close()

	p, err := NewAnthropicProvider(&config.LLMConfig{APIKey: "bad", BaseURL: server.URL}, time.Second)
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), "claim")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid x-api-key")
}

func TestGeminiProvider_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "g-key", r.URL.Query().Get("key"))
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"UNCERTAIN"}]}}]}`))
	}))
	defer server.Close()

	p, err := NewGeminiProvider(&config.LLMConfig{APIKey: "g-key", BaseURL: server.URL}, time.Second)
	require.NoError(t, err)

	out, err := p.Complete(context.Background(), "claim")
	require.NoError(t, err)
	assert.Equal(t, "UNCERTAIN", out)
}

func TestOllamaProvider_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[]}`))
		case "/api/generate":
			var req ollamaGenerateRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "llama3.1", req.Model)
			assert.False(t, req.Stream)
			_ = json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: "TRUE", Done: true})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	p, err := TryConstructBackend(context.Background(), &config.LLMConfig{Provider: "ollama", OllamaURL: server.URL + "/"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "ollama", p.Name())

	out, err := p.Complete(context.Background(), "claim")
	require.NoError(t, err)
	assert.Equal(t, "TRUE", out)
}

func TestOllamaProvider_ErrorField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			_, _ = w.Write([]byte(`{}`))
			return
		}
		_, _ = w.Write([]byte(`{"error":"model 'llama9' not found"}`))
	}))
	defer server.Close()

	p, err := NewOllamaProvider(context.Background(), &config.LLMConfig{OllamaURL: server.URL, Model: "llama9"}, time.Second)
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), "claim")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
