package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/tracememory/pkg/analytics"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTurnCompleted is emitted at the end of every chat turn.
	EventTypeTurnCompleted = "tracememory.turn.completed"
)

// Turn outcomes.
const (
	OutcomeOK         = "ok"
	OutcomeNoResponse = "no_response"
	OutcomeError      = "error"
)

// TurnCompletedEvent is a transport-neutral event payload for one turn.
type TurnCompletedEvent struct {
	SchemaVersion int             `json:"schema_version"`
	EventType     string          `json:"event_type"`
	EventID       string          `json:"event_id"`
	EmittedAt     time.Time       `json:"emitted_at"`
	Source        EventSource     `json:"source"`
	Turn          analytics.Event `json:"turn"`
	Outcome       string          `json:"outcome"`
	Error         string          `json:"error,omitempty"`
	DurationMs    int64           `json:"duration_ms"`
}

// EventSource identifies who produced the turn.
type EventSource struct {
	UserID   string `json:"user_id"`
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
}

// NewTurnCompletedEvent fills the envelope fields around turn.
func NewTurnCompletedEvent(source EventSource, turn analytics.Event, outcome string, duration time.Duration) *TurnCompletedEvent {
	return &TurnCompletedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeTurnCompleted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source:        source,
		Turn:          turn,
		Outcome:       outcome,
		DurationMs:    duration.Milliseconds(),
	}
}
