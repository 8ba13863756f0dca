// Package transcript keeps the display transcript of a session. It is
// independent of the memory backend: clearing it does not touch memory.
package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/papercomputeco/tracememory/pkg/llm"
)

// Store holds the ordered messages of each session.
type Store interface {
	// Append adds a message to the end of the session transcript.
	Append(ctx context.Context, sessionID string, msg llm.Message) error

	// List returns the session transcript in order. Unknown sessions yield
	// an empty slice.
	List(ctx context.Context, sessionID string) ([]llm.Message, error)

	// Clear drops the session transcript.
	Clear(ctx context.Context, sessionID string) error

	Close() error
}

// Export is the downloadable transcript document.
type Export struct {
	UserID     string        `json:"user_id"`
	SessionID  string        `json:"session_id"`
	ExportedAt string        `json:"exported_at"`
	Messages   []llm.Message `json:"messages"`
}

// NewExport builds an export stamped with now in UTC.
func NewExport(userID, sessionID string, messages []llm.Message, now time.Time) *Export {
	if messages == nil {
		messages = []llm.Message{}
	}
	return &Export{
		UserID:     userID,
		SessionID:  sessionID,
		ExportedAt: now.UTC().Format("2006-01-02T15:04:05.000000Z"),
		Messages:   messages,
	}
}

// JSON renders the export indented.
func (e *Export) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding transcript: %w", err)
	}
	return data, nil
}

// Filename is the suggested download name.
func (e *Export) Filename() string {
	return fmt.Sprintf("transcript_%s_%s.json", e.UserID, e.SessionID)
}
