// Package inmemory provides a process-local transcript.Store.
package inmemory

import (
	"context"
	"sync"

	"github.com/papercomputeco/tracememory/pkg/llm"
)

// Store implements transcript.Store with a map of slices.
type Store struct {
	mu       sync.RWMutex
	sessions map[string][]llm.Message
}

func NewStore() *Store {
	return &Store{sessions: make(map[string][]llm.Message)}
}

func (s *Store) Append(_ context.Context, sessionID string, msg llm.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = append(s.sessions[sessionID], msg)
	return nil
}

func (s *Store) List(_ context.Context, sessionID string) ([]llm.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]llm.Message{}, s.sessions[sessionID]...), nil
}

func (s *Store) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *Store) Close() error {
	return nil
}
