// Package provider selects and builds the configured llm.Completer.
package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/papercomputeco/tracememory/pkg/llm"
	"github.com/papercomputeco/tracememory/pkg/llm/provider/ollama"
	"github.com/papercomputeco/tracememory/pkg/llm/provider/openai"
)

const (
	OpenAI = "openai"
	Ollama = "ollama"
)

// SupportedProviders returns the provider names New accepts.
func SupportedProviders() []string {
	return []string{OpenAI, Ollama}
}

// Config is the union of provider settings.
type Config struct {
	// Provider is "openai", "ollama" or empty. Empty picks openai when an
	// API key is present and ollama otherwise.
	Provider string

	APIKey  string
	BaseURL string
	Model   string

	OllamaHost  string
	OllamaModel string

	Timeout time.Duration
}

// Resolve returns the provider name New will build for cfg.
func Resolve(cfg Config) string {
	if cfg.Provider != "" {
		return cfg.Provider
	}
	if cfg.APIKey != "" {
		return OpenAI
	}
	return Ollama
}

// New builds the completer for cfg.
func New(ctx context.Context, cfg Config) (llm.Completer, error) {
	switch name := Resolve(cfg); name {
	case OpenAI:
		return openai.New(ctx, openai.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
	case Ollama:
		return ollama.New(ctx, ollama.Config{
			Host:    cfg.OllamaHost,
			Model:   cfg.OllamaModel,
			Timeout: cfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q (supported: %v)", name, SupportedProviders())
	}
}
