// Package llm defines the chat-completion contract used by the turn
// orchestrator and adapts eino chat models to it.
package llm

import (
	"context"
	"errors"
)

const (
	// DefaultTemperature, DefaultMaxTokens and DefaultTopP are the fixed,
	// low-variance generation parameters used for every turn.
	DefaultTemperature float32 = 0.7
	DefaultMaxTokens   int     = 512
	DefaultTopP        float32 = 0.9
)

// ErrEmptyPrompt is returned when a request carries no user message.
var ErrEmptyPrompt = errors.New("empty user message")

// CompletionRequest is a single synchronous completion: one system
// instruction block and one user message.
type CompletionRequest struct {
	System string
	User   string

	// Model overrides the provider's configured model when non-empty.
	Model string

	Temperature float32
	MaxTokens   int
	TopP        float32
}

// Completer generates a reply for a completion request.
type Completer interface {
	// Name returns the provider name (e.g. "openai", "ollama").
	Name() string

	// Complete returns the generated text. An empty string with a nil error
	// means the model produced no content.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// NewRequest returns a request with the default generation parameters.
func NewRequest(system, user string) CompletionRequest {
	return CompletionRequest{
		System:      system,
		User:        user,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		TopP:        DefaultTopP,
	}
}

// Message is one transcript entry.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ErrorResponse is the JSON error body returned by the HTTP surface.
type ErrorResponse struct {
	Error string `json:"error"`
}
