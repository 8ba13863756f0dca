// Package chat drives one conversational turn for a session.
//
// A turn always runs the same path: append the user message, invalidate the
// context cache, fetch context, assemble the prompt, call the model, append
// the reply, emit telemetry. The ordering guarantees every fetch sees the
// write that preceded it.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/papercomputeco/tracememory/pkg/analytics"
	"github.com/papercomputeco/tracememory/pkg/apperr"
	"github.com/papercomputeco/tracememory/pkg/eventstream"
	"github.com/papercomputeco/tracememory/pkg/eventstream/nop"
	"github.com/papercomputeco/tracememory/pkg/llm"
	"github.com/papercomputeco/tracememory/pkg/logger"
	"github.com/papercomputeco/tracememory/pkg/memory"
	"github.com/papercomputeco/tracememory/pkg/memory/cache"
	"github.com/papercomputeco/tracememory/pkg/prompt"
)

var (
	// ErrNoResponse is returned when the model reply is blank. The reply is
	// not persisted.
	ErrNoResponse = errors.New("no response")

	// ErrEmptyMessage is returned for blank user input.
	ErrEmptyMessage = errors.New("empty message")
)

// Config holds the collaborators of a Handler.
type Config struct {
	UserID    string
	SessionID string

	Backend   memory.Backend
	Completer llm.Completer

	// Model overrides the completer's configured model when non-empty.
	Model string

	// Instructions defaults to prompt.BaseInstructions.
	Instructions string

	// Cache configures the session's context cache.
	Cache cache.Config

	// Recorder collects analytics events. Optional.
	Recorder *analytics.Recorder

	// Publisher receives turn events. Defaults to a no-op publisher.
	Publisher eventstream.Publisher

	Logger *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// TurnResult is what a turn produced, returned alongside any turn error so
// callers can still show the context that was used.
type TurnResult struct {
	Reply         string
	MemoryContext string
	Event         analytics.Event
}

// Handler owns the context cache of exactly one session and runs its turns
// one at a time.
type Handler struct {
	userID       string
	sessionID    string
	backend      memory.Backend
	completer    llm.Completer
	model        string
	instructions string
	cache        *cache.ContextCache
	recorder     *analytics.Recorder
	publisher    eventstream.Publisher
	logger       *slog.Logger
	now          func() time.Time

	mu sync.Mutex
}

// NewHandler validates cfg and builds a handler for its session.
func NewHandler(cfg Config) (*Handler, error) {
	if cfg.SessionID == "" {
		return nil, errors.New("session id is required")
	}
	if cfg.Backend == nil {
		return nil, memory.ErrNotConfigured
	}
	if cfg.Completer == nil {
		return nil, errors.New("completer is required")
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("session_id", cfg.SessionID)

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	instructions := cfg.Instructions
	if instructions == "" {
		instructions = prompt.BaseInstructions
	}

	publisher := cfg.Publisher
	if publisher == nil {
		publisher = nop.NewPublisher()
	}

	cacheCfg := cfg.Cache
	if cacheCfg.Logger == nil {
		cacheCfg.Logger = log
	}
	if cacheCfg.Now == nil {
		cacheCfg.Now = now
	}

	return &Handler{
		userID:       cfg.UserID,
		sessionID:    cfg.SessionID,
		backend:      cfg.Backend,
		completer:    cfg.Completer,
		model:        cfg.Model,
		instructions: instructions,
		cache:        cache.New(cfg.Backend, cfg.SessionID, cacheCfg),
		recorder:     cfg.Recorder,
		publisher:    publisher,
		logger:       log,
		now:          now,
	}, nil
}

// SessionID returns the session this handler serves.
func (h *Handler) SessionID() string {
	return h.sessionID
}

// MemoryContext returns the cached context, refreshing it if stale.
func (h *Handler) MemoryContext(ctx context.Context, minRating float64) string {
	return h.cache.Get(ctx, minRating)
}

// Turn runs one conversational turn.
//
// Auth failures while persisting the user message abort the turn. Other
// persistence failures are logged and the turn proceeds with whatever
// memory the backend can still serve. Completion failures are classified
// into *apperr.AuthError, *apperr.ThrottledError or *apperr.GenerationError.
func (h *Handler) Turn(ctx context.Context, userText string, minRating float64, pinned []string) (*TurnResult, error) {
	if strings.TrimSpace(userText) == "" {
		return nil, ErrEmptyMessage
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	started := h.now()
	result := &TurnResult{}

	if err := h.backend.AppendMessage(ctx, h.sessionID, memory.RoleUser, memory.UserDisplayName, userText); err != nil {
		if apperr.IsAuth(err) {
			return nil, err
		}
		h.logger.Warn("persisting user message failed", "error", err)
	}

	h.cache.Invalidate()
	result.MemoryContext = h.cache.Get(ctx, minRating)

	system := prompt.Assemble(h.instructions, pinned, result.MemoryContext)

	req := llm.NewRequest(system, userText)
	req.Model = h.model

	reply, err := h.completer.Complete(ctx, req)
	if err != nil {
		err = apperr.ClassifyCompletion("generate reply", err)
		h.emit(ctx, result, userText, eventstream.OutcomeError, err, started)
		return result, err
	}

	if strings.TrimSpace(reply) == "" {
		h.emit(ctx, result, userText, eventstream.OutcomeNoResponse, nil, started)
		return result, ErrNoResponse
	}
	result.Reply = reply

	if err := h.backend.AppendMessage(ctx, h.sessionID, memory.RoleAssistant, memory.AssistantDisplayName, reply); err != nil {
		h.logger.Warn("persisting assistant reply failed", "error", err)
	}

	h.emit(ctx, result, userText, eventstream.OutcomeOK, nil, started)
	return result, nil
}

// emit records and publishes telemetry for the turn. It never fails the
// turn: publish errors and panics are logged.
func (h *Handler) emit(ctx context.Context, result *TurnResult, userText, outcome string, turnErr error, started time.Time) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("telemetry panicked", "panic", fmt.Sprint(r))
		}
	}()

	result.Event = analytics.NewEvent(h.now(), h.sessionID, result.MemoryContext, userText, result.Reply)
	if h.recorder != nil {
		h.recorder.Record(result.Event)
	}

	event := eventstream.NewTurnCompletedEvent(eventstream.EventSource{
		UserID:   h.userID,
		Provider: h.completer.Name(),
		Model:    h.model,
	}, result.Event, outcome, h.now().Sub(started))
	if turnErr != nil {
		event.Error = turnErr.Error()
	}

	if err := h.publisher.PublishTurn(ctx, event); err != nil {
		h.logger.Warn("publishing turn event failed", "error", err)
	}

	h.logger.Debug("turn completed",
		"outcome", outcome,
		"memory_used", result.Event.MemoryUsed,
		"memory_chars", result.Event.MemoryContextChars,
	)
}
