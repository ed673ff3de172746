// Package llm provides a pluggable interface for text-completion backends.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/factchecker/claimcheck/internal/config"
)

// ErrDisabled is returned by TryConstructBackend when no provider is configured.
var ErrDisabled = errors.New("llm backend disabled")

// Provider is a text-completion backend. Implementations are immutable after
// construction and safe for concurrent use.
type Provider interface {
	// Complete returns the completion for a single user prompt.
	Complete(ctx context.Context, prompt string) (string, error)

	// Name returns the provider name.
	Name() string
}

// options are the generation settings shared by every provider.
type options struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

func optionsFrom(cfg *config.LLMConfig, defaultModel string, timeout time.Duration) options {
	o := options{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     timeout,
	}
	if o.Model == "" {
		o.Model = defaultModel
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = 1024
	}
	if o.Timeout <= 0 {
		o.Timeout = 60 * time.Second
	}
	return o
}

// TryConstructBackend builds the configured provider once at startup. Any
// error, ErrDisabled included, means the caller should run on heuristics.
func TryConstructBackend(ctx context.Context, cfg *config.LLMConfig, timeout time.Duration) (Provider, error) {
	var (
		p   Provider
		err error
	)

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "noop", "none", "disabled":
		return nil, ErrDisabled
	case "openai":
		p, err = NewOpenAIProvider(cfg, timeout)
	case "anthropic", "claude":
		p, err = NewAnthropicProvider(cfg, timeout)
	case "gemini":
		p, err = NewGeminiProvider(cfg, timeout)
	case "ollama":
		p, err = NewOllamaProvider(ctx, cfg, timeout)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}

	// Never hand back a typed nil inside the interface.
	if err != nil {
		return nil, err
	}
	return p, nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
