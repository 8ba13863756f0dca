package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// EinoCompleter adapts an eino chat model to Completer.
type EinoCompleter struct {
	name  string
	model model.BaseChatModel
}

var _ Completer = (*EinoCompleter)(nil)

// NewEinoCompleter wraps cm under the provider name.
func NewEinoCompleter(name string, cm model.BaseChatModel) *EinoCompleter {
	return &EinoCompleter{name: name, model: cm}
}

// Name implements Completer.
func (e *EinoCompleter) Name() string {
	return e.name
}

// Complete sends the system and user messages with the request's generation
// parameters and returns the reply content.
func (e *EinoCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if strings.TrimSpace(req.User) == "" {
		return "", ErrEmptyPrompt
	}

	messages := make([]*schema.Message, 0, 2)
	if req.System != "" {
		messages = append(messages, schema.SystemMessage(req.System))
	}
	messages = append(messages, schema.UserMessage(req.User))

	opts := []model.Option{
		model.WithTemperature(req.Temperature),
		model.WithMaxTokens(req.MaxTokens),
		model.WithTopP(req.TopP),
	}
	if req.Model != "" {
		opts = append(opts, model.WithModel(req.Model))
	}

	out, err := e.model.Generate(ctx, messages, opts...)
	if err != nil {
		return "", fmt.Errorf("%s completion: %w", e.name, err)
	}
	if out == nil {
		return "", nil
	}

	return out.Content, nil
}
