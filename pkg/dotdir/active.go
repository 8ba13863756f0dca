package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const activeFile = "active.json"

// ActiveSession points at the session the chat command resumes.
type ActiveSession struct {
	UserID    string    `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	SessionID string    `json:"session_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LoadActiveSession reads active.json from the resolved directory.
// Returns nil, nil when there is no directory or no active session.
func (m *Manager) LoadActiveSession(overrideDir string) (*ActiveSession, error) {
	dir, err := m.Target(overrideDir)
	if err != nil || dir == "" {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, activeFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading active session: %w", err)
	}

	state := &ActiveSession{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parsing active session: %w", err)
	}
	return state, nil
}

// SaveActiveSession writes active.json, creating the directory if needed.
func (m *Manager) SaveActiveSession(state *ActiveSession, overrideDir string) error {
	if state == nil {
		return errors.New("cannot save nil active session")
	}

	dir, err := m.Ensure(overrideDir)
	if err != nil {
		return err
	}

	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now().UTC()
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling active session: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, activeFile), data, 0o600); err != nil {
		return fmt.Errorf("writing active session: %w", err)
	}
	return nil
}

// ClearActiveSession removes active.json. Missing files are not an error.
func (m *Manager) ClearActiveSession(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil || dir == "" {
		return err
	}

	if err := os.Remove(filepath.Join(dir, activeFile)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing active session: %w", err)
	}
	return nil
}
