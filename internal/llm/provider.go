// Package llm talks to hosted language models to summarise submitted
// reports. Each SDK is wrapped as a Provider.
package llm

import (
	"context"
	"errors"
	"fmt"
)

const (
	// Temperature and MaxTokens match the settings the report prompt was
	// tuned with.
	Temperature = 0.7
	MaxTokens   = 2048
)

// ErrEmptyResponse is returned when a provider answers without text.
var ErrEmptyResponse = errors.New("LLM returned no content")

// Provider completes a single-turn prompt.
type Provider interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
	Name() string
}

// Config selects and configures a provider.
type Config struct {
	// Provider is one of "openai", "gemini", "anthropic" or "none".
	Provider string
	BaseURL  string
	APIKey   string
	Model    string
}

// Default models per provider when Config.Model is empty.
var defaultModels = map[string]string{
	"openai":    "gpt-4o-mini",
	"gemini":    "gemini-2.0-flash",
	"anthropic": "claude-haiku",
}

// NewProvider builds the configured provider. It returns nil and no error
// for "none", meaning reports always use the canned analysis.
func NewProvider(ctx context.Context, cfg Config) (Provider, error) {
	model := cfg.Model
	if model == "" {
		model = defaultModels[cfg.Provider]
	}
	switch cfg.Provider {
	case "", "none":
		return nil, nil
	case "openai":
		return NewOpenAI(cfg.BaseURL, cfg.APIKey, model), nil
	case "gemini":
		return NewGemini(ctx, cfg.BaseURL, cfg.APIKey, model)
	case "anthropic":
		return NewAnthropic(cfg.BaseURL, cfg.APIKey, model)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}

// resolveModel maps a friendly model name to a provider model ID.
func resolveModel(name string, models map[string]string) string {
	if id, ok := models[name]; ok {
		return id
	}
	return name
}
