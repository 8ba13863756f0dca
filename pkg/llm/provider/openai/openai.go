// Package openai builds an llm.Completer on eino's OpenAI chat model.
package openai

import (
	"context"
	"fmt"
	"time"

	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"

	"github.com/papercomputeco/tracememory/pkg/apperr"
	"github.com/papercomputeco/tracememory/pkg/llm"
)

const (
	// DefaultModel is the OpenAI model used when none is configured.
	DefaultModel = "gpt-4o-mini"

	providerName = "openai"
)

// Config holds configuration for the OpenAI completer.
type Config struct {
	APIKey string

	// BaseURL overrides the OpenAI endpoint for compatible gateways.
	BaseURL string

	// Model defaults to DefaultModel.
	Model string

	// Timeout defaults to 60 seconds.
	Timeout time.Duration
}

// New creates an OpenAI-backed completer.
func New(ctx context.Context, cfg Config) (*llm.EinoCompleter, error) {
	if cfg.APIKey == "" {
		return nil, &apperr.ConfigError{Field: "llm.api_key", Msg: "OpenAI API key is required"}
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	maxTokens := llm.DefaultMaxTokens
	temperature := llm.DefaultTemperature
	topP := llm.DefaultTopP

	cm, err := einoopenai.NewChatModel(ctx, &einoopenai.ChatModelConfig{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       model,
		Timeout:     timeout,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
		TopP:        &topP,
	})
	if err != nil {
		return nil, fmt.Errorf("creating openai chat model: %w", err)
	}

	return llm.NewEinoCompleter(providerName, cm), nil
}
