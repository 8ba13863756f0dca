// Package nop provides the eventstream publisher used when no broker is
// configured.
package nop

import (
	"context"

	"github.com/papercomputeco/tracememory/pkg/eventstream"
)

// Publisher validates events and drops them.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishTurn rejects nil events and otherwise does nothing.
func (p *Publisher) PublishTurn(_ context.Context, event *eventstream.TurnCompletedEvent) error {
	if event == nil {
		return eventstream.ErrNilTurnEvent
	}
	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
