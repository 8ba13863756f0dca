// Package store persists per-user session lists and pinned facts as JSON
// files under the tracememory directory.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/papercomputeco/tracememory/pkg/identity"
)

// TimeFormat is the layout used for SessionRecord.CreatedAt.
const TimeFormat = "2006-01-02T15:04:05.000000Z"

// Store reads and writes {dir}/{user}.json files.
type Store struct {
	dir string
	now func() time.Time

	mu sync.Mutex
}

// New creates a Store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("store directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store dir %s: %w", dir, err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

// Dir returns the directory the store writes into.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file used for userID. Characters other than Unicode
// letters, digits, '-' and '_' are dropped.
func (s *Store) Path(userID string) string {
	return filepath.Join(s.dir, sanitize(userID)+".json")
}

func sanitize(userID string) string {
	var b strings.Builder
	for _, r := range userID {
		switch {
		case unicode.IsLetter(r), unicode.IsNumber(r), r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return identity.DefaultUserID
	}
	return b.String()
}

func (s *Store) load(userID string) (*UserData, error) {
	data, err := os.ReadFile(s.Path(userID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &UserData{}, nil
		}
		return nil, fmt.Errorf("reading user store: %w", err)
	}

	ud := &UserData{}
	if err := json.Unmarshal(data, ud); err != nil {
		return nil, fmt.Errorf("parsing user store: %w", err)
	}
	return ud, nil
}

func (s *Store) save(userID string, ud *UserData) error {
	if ud.Sessions == nil {
		ud.Sessions = []SessionRecord{}
	}
	if ud.PinnedFacts == nil {
		ud.PinnedFacts = []PinnedFact{}
	}

	data, err := json.MarshalIndent(ud, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding user store: %w", err)
	}

	path := s.Path(userID)
	tmp, err := os.CreateTemp(s.dir, ".tmp-*.json")
	if err != nil {
		return fmt.Errorf("writing user store: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing user store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing user store: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing user store: %w", err)
	}
	return nil
}

// AddSession records sessionID for userID. Recording a known session is a
// no-op apart from normalizing older files.
func (s *Store) AddSession(userID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ud, err := s.load(userID)
	if err != nil {
		return err
	}

	sessions := make([]SessionRecord, 0, len(ud.Sessions)+1)
	found := false
	for _, rec := range ud.Sessions {
		if rec.ID == "" {
			continue
		}
		if rec.ID == sessionID {
			found = true
		}
		sessions = append(sessions, rec)
	}
	if !found {
		created := s.now().UTC().Format(TimeFormat)
		sessions = append(sessions, SessionRecord{ID: sessionID, CreatedAt: &created})
	}

	ud.Sessions = sessions
	return s.save(userID, ud)
}

// ListSessions returns the session ids for userID in insertion order.
func (s *Store) ListSessions(userID string) ([]string, error) {
	records, err := s.ListSessionRecords(userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	return ids, nil
}

// ListSessionRecords returns the session records for userID.
func (s *Store) ListSessionRecords(userID string) ([]SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ud, err := s.load(userID)
	if err != nil {
		return nil, err
	}

	records := make([]SessionRecord, 0, len(ud.Sessions))
	for _, rec := range ud.Sessions {
		if rec.ID != "" {
			records = append(records, rec)
		}
	}
	return records, nil
}

// SetPinnedFacts replaces the pinned facts for userID.
func (s *Store) SetPinnedFacts(userID string, facts []PinnedFact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ud, err := s.load(userID)
	if err != nil {
		return err
	}

	ud.PinnedFacts = append([]PinnedFact(nil), facts...)
	return s.save(userID, ud)
}

// GetPinnedFacts returns the pinned facts for userID. Entries without text
// are skipped.
func (s *Store) GetPinnedFacts(userID string) ([]PinnedFact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ud, err := s.load(userID)
	if err != nil {
		return nil, err
	}

	facts := make([]PinnedFact, 0, len(ud.PinnedFacts))
	for _, f := range ud.PinnedFacts {
		if f.Text != "" {
			facts = append(facts, f)
		}
	}
	return facts, nil
}
