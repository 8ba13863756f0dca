// Package cache provides a per-session, time-bounded cache in front of a
// memory backend's context fetch.
//
// The cache key is the session alone. A value fetched at one rating
// threshold is returned for any threshold until it expires or is
// invalidated.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/papercomputeco/tracememory/pkg/logger"
	"github.com/papercomputeco/tracememory/pkg/memory"
)

const (
	// DefaultTTL is how long a fetched context stays valid.
	DefaultTTL = 30 * time.Second

	// DefaultMaxChars bounds the cached context length.
	DefaultMaxChars = 4000
)

// Source is the subset of memory.Backend the cache reads from.
type Source interface {
	GetMemoryContext(ctx context.Context, sessionID string, minRating float64) (*memory.Context, error)
}

// Config holds configuration for a ContextCache.
type Config struct {
	// TTL defaults to DefaultTTL when zero.
	TTL time.Duration

	// MaxChars defaults to DefaultMaxChars when zero.
	MaxChars int

	// Now defaults to time.Now.
	Now func() time.Time

	Logger *slog.Logger
}

// ContextCache caches the memory context of exactly one session.
type ContextCache struct {
	source    Source
	sessionID string
	ttl       time.Duration
	maxChars  int
	now       func() time.Time
	logger    *slog.Logger

	mu        sync.Mutex
	value     string
	fetchedAt time.Time
	populated bool
}

// New creates a cache for sessionID reading from source.
func New(source Source, sessionID string, cfg Config) *ContextCache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	maxChars := cfg.MaxChars
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &ContextCache{
		source:    source,
		sessionID: sessionID,
		ttl:       ttl,
		maxChars:  maxChars,
		now:       now,
		logger:    log,
	}
}

// Get returns the cached context while it is valid, otherwise refreshes it
// from the backend. The refreshed text keeps only its trailing MaxChars
// characters. A failed refresh is logged and yields "" without being cached.
func (c *ContextCache) Get(ctx context.Context, minRating float64) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.populated && c.now().Sub(c.fetchedAt) < c.ttl {
		return c.value
	}

	mc, err := c.source.GetMemoryContext(ctx, c.sessionID, minRating)
	if err != nil {
		c.logger.Warn("memory context refresh failed",
			"session_id", c.sessionID,
			"error", err,
		)
		return ""
	}

	text := ""
	if mc != nil {
		text = KeepTail(mc.Text, c.maxChars)
	}

	c.value = text
	c.fetchedAt = c.now()
	c.populated = true

	return text
}

// Invalidate clears the cached value unconditionally.
func (c *ContextCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.value = ""
	c.fetchedAt = time.Time{}
	c.populated = false
}

// KeepTail returns the last n characters of s.
func KeepTail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
