// Package local provides an in-process implementation of memory.Backend.
//
// Users and sessions live in maps guarded by a mutex. The memory context for
// a session is synthesized from the user's own messages across all of their
// sessions, newest last, so offline development and tests see memory carry
// over from one session to the next.
package local

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/papercomputeco/tracememory/pkg/memory"
)

// Config holds configuration for the local backend.
type Config struct {
	// Enabled controls whether context is synthesized. When false,
	// GetMemoryContext always returns an empty context.
	Enabled bool
}

// Call is one recorded backend operation.
type Call struct {
	Op        string
	SessionID string
	Role      string
}

type storedMessage struct {
	role    string
	name    string
	content string
}

type session struct {
	userID   string
	messages []storedMessage
}

// Backend implements memory.Backend using in-process data structures.
type Backend struct {
	config Config

	mu       sync.RWMutex
	users    map[string]struct{}
	sessions map[string]*session
	order    []string
	calls    []Call
}

var _ memory.Backend = (*Backend)(nil)

// NewBackend creates a local in-memory backend.
func NewBackend(config Config) *Backend {
	return &Backend{
		config:   config,
		users:    make(map[string]struct{}),
		sessions: make(map[string]*session),
	}
}

func (b *Backend) record(c Call) {
	b.calls = append(b.calls, c)
}

// Calls returns a copy of the recorded operation log in call order.
func (b *Backend) Calls() []Call {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Call, len(b.calls))
	copy(out, b.calls)
	return out
}

// EnsureUser registers the user and reports whether it was already known.
func (b *Backend) EnsureUser(_ context.Context, userID, _, _ string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(Call{Op: "ensure_user"})
	if _, ok := b.users[userID]; ok {
		return true, nil
	}
	b.users[userID] = struct{}{}
	return false, nil
}

// CreateSession binds a new or existing session id to the user.
func (b *Backend) CreateSession(_ context.Context, userID, sessionID string) (string, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(Call{Op: "create_session", SessionID: sessionID})
	if _, ok := b.sessions[sessionID]; !ok {
		b.sessions[sessionID] = &session{userID: userID}
		b.order = append(b.order, sessionID)
	}
	return sessionID, nil
}

// GetMemoryContext lists the user's messages as one bullet per line, from
// the user's earlier sessions first and this session last.
func (b *Backend) GetMemoryContext(_ context.Context, sessionID string, _ float64) (*memory.Context, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(Call{Op: "get_context", SessionID: sessionID})

	s, ok := b.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %q: %w", sessionID, memory.ErrSessionNotFound)
	}
	if !b.config.Enabled {
		return &memory.Context{}, nil
	}

	var lines []string
	for _, id := range b.order {
		other := b.sessions[id]
		if other == s || other.userID != s.userID {
			continue
		}
		lines = appendUserLines(lines, other.messages)
	}
	lines = appendUserLines(lines, s.messages)

	return &memory.Context{Text: strings.Join(lines, "\n")}, nil
}

func appendUserLines(lines []string, msgs []storedMessage) []string {
	for _, m := range msgs {
		if m.role != memory.RoleUser {
			continue
		}
		lines = append(lines, "- "+m.content)
	}
	return lines
}

// AppendMessage appends to the session's log.
func (b *Backend) AppendMessage(_ context.Context, sessionID, role, displayName, content string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(Call{Op: "append", SessionID: sessionID, Role: role})

	s, ok := b.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session %q: %w", sessionID, memory.ErrSessionNotFound)
	}
	s.messages = append(s.messages, storedMessage{role: role, name: displayName, content: content})
	return nil
}

// DeleteSession removes the session and reports whether it existed.
func (b *Backend) DeleteSession(_ context.Context, sessionID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(Call{Op: "delete_session", SessionID: sessionID})
	if _, ok := b.sessions[sessionID]; !ok {
		return false
	}
	delete(b.sessions, sessionID)
	for i, id := range b.order {
		if id == sessionID {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return true
}
