// Package ollama builds an llm.Completer on eino's Ollama chat model, used
// when no OpenAI key is configured.
package ollama

import (
	"context"
	"fmt"
	"time"

	einoollama "github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/ollama/ollama/api"

	"github.com/papercomputeco/tracememory/pkg/llm"
)

const (
	// DefaultHost is the local Ollama server.
	DefaultHost = "http://127.0.0.1:11434"

	// DefaultModel is the Ollama model used when none is configured.
	DefaultModel = "qwen3:4b"

	providerName = "ollama"
)

// Config holds configuration for the Ollama completer.
type Config struct {
	// Host defaults to DefaultHost.
	Host string

	// Model defaults to DefaultModel.
	Model string

	// Timeout defaults to 120 seconds.
	Timeout time.Duration
}

// New creates an Ollama-backed completer.
func New(ctx context.Context, cfg Config) (*llm.EinoCompleter, error) {
	host := cfg.Host
	if host == "" {
		host = DefaultHost
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	cm, err := einoollama.NewChatModel(ctx, &einoollama.ChatModelConfig{
		BaseURL: host,
		Model:   model,
		Timeout: timeout,
		Options: &api.Options{
			Temperature: llm.DefaultTemperature,
			TopP:        llm.DefaultTopP,
			NumPredict:  llm.DefaultMaxTokens,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating ollama chat model: %w", err)
	}

	return llm.NewEinoCompleter(providerName, cm), nil
}
