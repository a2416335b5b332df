// Package llm wraps the chat-completion backends used by the agents.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harshgondal/Job-Finder/internal/config"
)

// ErrUnavailable is returned when no backend is configured.
var ErrUnavailable = errors.New("llm backend unavailable")

// Request is a single completion call.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float32
	// JSON asks the backend for a JSON-only answer where it supports it.
	JSON bool
}

// Client produces one completion per call.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// New builds the configured backend behind a rate limiter. It returns
// ErrUnavailable when the provider is disabled or has no API key.
func New(ctx context.Context, cfg config.LLMConfig) (Client, error) {
	if !cfg.Enabled() {
		return nil, ErrUnavailable
	}

	var (
		backend Client
		err     error
	)
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		backend, err = NewOpenAI(OpenAIConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
	case "gemini":
		backend, err = NewGemini(ctx, cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return NewRateLimited(backend, cfg.RateLimitRPS, cfg.Burst), nil
}
