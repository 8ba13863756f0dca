// Package memory defines the contract tracememory requires of a long-term
// memory service, plus the fact extraction that shapes its responses for the
// review surfaces.
//
// The backend owns ranking and fact extraction. Implementations only persist
// turns and hand back a rating-filtered context: see [Backend].
//
// Backends are selected via configuration:
//
//	[memory]
//	provider = "zep"   # or "local"
package memory

import "context"

const (
	// RoleUser and RoleAssistant are the only roles appended to a session.
	RoleUser      = "user"
	RoleAssistant = "assistant"

	// UserDisplayName and AssistantDisplayName label appended messages.
	UserDisplayName      = "USER"
	AssistantDisplayName = "TraceMemory Copilot"

	// DefaultMinRating is the fact rating threshold used when none is configured.
	DefaultMinRating = 0.7
)

// Backend is a long-term memory service holding per-user sessions.
type Backend interface {
	// EnsureUser creates the user with the fact rating policy if absent and
	// reports whether it already existed. Credential failures surface as
	// *apperr.AuthError and are never turned into a create attempt.
	EnsureUser(ctx context.Context, userID, firstName, lastName string) (bool, error)

	// CreateSession creates a thread bound to the user. An empty sessionID
	// generates a new one. Failures caused by a pre-existing thread are
	// treated as success.
	CreateSession(ctx context.Context, userID, sessionID string) (string, error)

	// GetMemoryContext returns the backend's synthesis of facts at or above
	// minRating. The text may be arbitrarily large.
	GetMemoryContext(ctx context.Context, sessionID string, minRating float64) (*Context, error)

	// AppendMessage appends one message to the session. Ordering within a
	// session follows call order.
	AppendMessage(ctx context.Context, sessionID, role, displayName, content string) error

	// DeleteSession is best effort and reports false on any failure.
	DeleteSession(ctx context.Context, sessionID string) bool
}

// Context is a memory context response normalized at the backend boundary.
type Context struct {
	// Text is the free-text context block. Possibly empty, never nil.
	Text string `json:"context"`

	// Facts is the structured fact collection when the backend exposes one.
	Facts []RawFact `json:"facts,omitempty"`
}

// RawFact is a structured fact entry as returned by a backend. Different
// deployment modes put the text under different keys and may omit rating
// and source, so all fields are loose.
type RawFact struct {
	Fact    string `json:"fact,omitempty"`
	Content string `json:"content,omitempty"`
	Text    string `json:"text,omitempty"`
	Rating  any    `json:"rating,omitempty"`
	Source  any    `json:"source,omitempty"`
}

// FactItem is a uniform fact candidate shown for review and pinning.
type FactItem struct {
	Text   string   `json:"text"`
	Rating *float64 `json:"rating"`
	Source *string  `json:"source"`
}
