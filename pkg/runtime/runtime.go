// Package runtime holds the state of one user's copilot: the active session,
// its chat handler, the display transcript, pinned facts and analytics.
// The chat command and the HTTP API both drive a *Session.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/papercomputeco/tracememory/pkg/analytics"
	"github.com/papercomputeco/tracememory/pkg/chat"
	"github.com/papercomputeco/tracememory/pkg/eventstream"
	"github.com/papercomputeco/tracememory/pkg/eventstream/nop"
	"github.com/papercomputeco/tracememory/pkg/identity"
	"github.com/papercomputeco/tracememory/pkg/llm"
	"github.com/papercomputeco/tracememory/pkg/logger"
	"github.com/papercomputeco/tracememory/pkg/memory"
	"github.com/papercomputeco/tracememory/pkg/memory/cache"
	"github.com/papercomputeco/tracememory/pkg/store"
	"github.com/papercomputeco/tracememory/pkg/transcript"
	"github.com/papercomputeco/tracememory/pkg/transcript/inmemory"
)

// DefaultFirstName is used when no first name is given.
const DefaultFirstName = "User"

var (
	// ErrNotInitialized is returned by every operation before Init.
	ErrNotInitialized = errors.New("initialize a user and session first")

	// ErrInvalidRating is returned for thresholds outside [0, 1].
	ErrInvalidRating = errors.New("min fact rating must be between 0 and 1")
)

// Config holds the collaborators of a Session.
type Config struct {
	Backend   memory.Backend
	Completer llm.Completer
	Store     *store.Store

	// Transcript defaults to an in-memory store.
	Transcript transcript.Store

	// Publisher defaults to a no-op publisher.
	Publisher eventstream.Publisher

	// Model overrides the completer's configured model when non-empty.
	Model string

	// MinRating defaults to memory.DefaultMinRating.
	MinRating float64

	Cache cache.Config

	Logger *slog.Logger
	Now    func() time.Time
}

// Session is the copilot state for one user. It is safe for concurrent use;
// turns within a session are serialized by the chat handler.
type Session struct {
	backend    memory.Backend
	completer  llm.Completer
	store      *store.Store
	transcript transcript.Store
	publisher  eventstream.Publisher
	model      string
	cacheCfg   cache.Config
	logger     *slog.Logger
	now        func() time.Time

	mu        sync.RWMutex
	minRating float64
	userID    string
	firstName string
	lastName  string
	sessionID string
	handler   *chat.Handler
	recorder  *analytics.Recorder

	pinMu sync.Mutex
}

// New validates cfg. The session is unusable until Init or Resume.
func New(cfg Config) (*Session, error) {
	if cfg.Backend == nil {
		return nil, memory.ErrNotConfigured
	}
	if cfg.Completer == nil {
		return nil, errors.New("completer is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}

	minRating := cfg.MinRating
	if minRating == 0 {
		minRating = memory.DefaultMinRating
	}
	if minRating < 0 || minRating > 1 {
		return nil, ErrInvalidRating
	}

	s := &Session{
		backend:    cfg.Backend,
		completer:  cfg.Completer,
		store:      cfg.Store,
		transcript: cfg.Transcript,
		publisher:  cfg.Publisher,
		model:      cfg.Model,
		cacheCfg:   cfg.Cache,
		logger:     cfg.Logger,
		now:        cfg.Now,
		minRating:  minRating,
	}
	if s.transcript == nil {
		s.transcript = inmemory.NewStore()
	}
	if s.publisher == nil {
		s.publisher = nop.NewPublisher()
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Init ensures the user exists, opens a fresh session and records it locally.
func (s *Session) Init(ctx context.Context, firstName, lastName string) error {
	return s.start(ctx, firstName, lastName, "")
}

// Resume is Init for an existing session id. Memory backends treat an
// already existing thread as success.
func (s *Session) Resume(ctx context.Context, firstName, lastName, sessionID string) error {
	if sessionID == "" {
		return errors.New("session id is required to resume")
	}
	return s.start(ctx, firstName, lastName, sessionID)
}

func (s *Session) start(ctx context.Context, firstName, lastName, sessionID string) error {
	first := strings.TrimSpace(firstName)
	if first == "" {
		first = DefaultFirstName
	}
	last := strings.TrimSpace(lastName)
	userID := identity.GenerateUserID(first, last)

	existed, err := s.backend.EnsureUser(ctx, userID, first, last)
	if err != nil {
		return fmt.Errorf("ensuring user %s: %w", userID, err)
	}
	s.logger.Debug("user ready", "user_id", userID, "existed", existed)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.openLocked(ctx, userID, sessionID); err != nil {
		return err
	}
	s.firstName = first
	s.lastName = last
	return nil
}

// NewSession opens another session for the same user. Analytics restart
// with the new session.
func (s *Session) NewSession(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handler == nil {
		return "", ErrNotInitialized
	}
	if err := s.openLocked(ctx, s.userID, ""); err != nil {
		return "", err
	}
	return s.sessionID, nil
}

// openLocked opens a session for userID and commits it only on success, so a
// failure leaves the previous user and session active.
func (s *Session) openLocked(ctx context.Context, userID, sessionID string) error {
	id, err := s.backend.CreateSession(ctx, userID, sessionID)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}

	if err := s.store.AddSession(userID, id); err != nil {
		return fmt.Errorf("recording session: %w", err)
	}

	recorder := analytics.NewRecorder()
	handler, err := chat.NewHandler(chat.Config{
		UserID:    userID,
		SessionID: id,
		Backend:   s.backend,
		Completer: s.completer,
		Model:     s.model,
		Cache:     s.cacheCfg,
		Recorder:  recorder,
		Publisher: s.publisher,
		Logger:    s.logger.With("user_id", userID),
		Now:       s.now,
	})
	if err != nil {
		return err
	}

	s.userID = userID
	s.sessionID = id
	s.handler = handler
	s.recorder = recorder
	s.logger.Info("session started", "user_id", userID, "session_id", id)
	return nil
}

// Info describes the active user and session.
type Info struct {
	UserID    string  `json:"user_id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	SessionID string  `json:"session_id"`
	MinRating float64 `json:"min_fact_rating"`
}

// Info returns the active identity, or ErrNotInitialized.
func (s *Session) Info() (Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.handler == nil {
		return Info{}, ErrNotInitialized
	}
	return Info{
		UserID:    s.userID,
		FirstName: s.firstName,
		LastName:  s.lastName,
		SessionID: s.sessionID,
		MinRating: s.minRating,
	}, nil
}

// MinRating returns the active fact rating threshold.
func (s *Session) MinRating() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.minRating
}

// SetMinRating changes the threshold used by later turns and reviews.
func (s *Session) SetMinRating(r float64) error {
	if r < 0 || r > 1 {
		return ErrInvalidRating
	}
	s.mu.Lock()
	s.minRating = r
	s.mu.Unlock()
	return nil
}

type snapshot struct {
	userID    string
	sessionID string
	minRating float64
	handler   *chat.Handler
	recorder  *analytics.Recorder
}

func (s *Session) snapshot() (snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.handler == nil {
		return snapshot{}, ErrNotInitialized
	}
	return snapshot{
		userID:    s.userID,
		sessionID: s.sessionID,
		minRating: s.minRating,
		handler:   s.handler,
		recorder:  s.recorder,
	}, nil
}

// Chat runs one turn. The user message is added to the transcript before the
// turn; the reply only when the model produced one.
func (s *Session) Chat(ctx context.Context, text string) (*chat.TurnResult, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, chat.ErrEmptyMessage
	}

	if err := s.transcript.Append(ctx, snap.sessionID, llm.Message{Role: memory.RoleUser, Content: text}); err != nil {
		s.logger.Warn("recording transcript failed", "error", err)
	}

	pinned, err := s.pinnedTexts(snap.userID)
	if err != nil {
		s.logger.Warn("loading pinned facts failed", "error", err)
	}

	result, err := snap.handler.Turn(ctx, text, snap.minRating, pinned)
	if err != nil {
		return result, err
	}

	if err := s.transcript.Append(ctx, snap.sessionID, llm.Message{Role: memory.RoleAssistant, Content: result.Reply}); err != nil {
		s.logger.Warn("recording transcript failed", "error", err)
	}
	return result, nil
}

// MemoryContext returns the active session's cached context.
func (s *Session) MemoryContext(ctx context.Context) (string, error) {
	snap, err := s.snapshot()
	if err != nil {
		return "", err
	}
	return snap.handler.MemoryContext(ctx, snap.minRating), nil
}

// Messages returns the transcript of the active session.
func (s *Session) Messages(ctx context.Context) ([]llm.Message, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return s.transcript.List(ctx, snap.sessionID)
}

// ClearMessages empties the transcript. Memory is untouched.
func (s *Session) ClearMessages(ctx context.Context) error {
	snap, err := s.snapshot()
	if err != nil {
		return err
	}
	return s.transcript.Clear(ctx, snap.sessionID)
}

// Export returns the downloadable transcript of the active session.
func (s *Session) Export(ctx context.Context) (*transcript.Export, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	msgs, err := s.transcript.List(ctx, snap.sessionID)
	if err != nil {
		return nil, err
	}
	return transcript.NewExport(snap.userID, snap.sessionID, msgs, s.now()), nil
}

// Sessions returns the sessions recorded for the user.
func (s *Session) Sessions() ([]store.SessionRecord, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return s.store.ListSessionRecords(snap.userID)
}

// Analytics summarizes the turns of the active session.
func (s *Session) Analytics() (analytics.Summary, error) {
	snap, err := s.snapshot()
	if err != nil {
		return analytics.Summary{}, err
	}
	return snap.recorder.Summary(), nil
}

// Close releases the transcript store and the publisher.
func (s *Session) Close() error {
	return errors.Join(s.transcript.Close(), s.publisher.Close())
}
