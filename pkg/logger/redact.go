package logger

import (
	"context"
	"log/slog"
	"strings"
)

// Redacted replaces the value of any secret attribute.
const Redacted = "[redacted]"

// DefaultSecretKeys are the attribute keys redacted by every logger built
// with New. Matching is case-insensitive on the last dotted segment, so
// "memory.api_key" and "api_key" are both covered.
var DefaultSecretKeys = []string{"api_key", "zep_api_key", "openai_api_key", "authorization", "password", "redis_url"}

type redactHandler struct {
	inner slog.Handler
	keys  map[string]struct{}
}

func newRedactHandler(inner slog.Handler, keys []string) slog.Handler {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[strings.ToLower(k)] = struct{}{}
	}
	return &redactHandler{inner: inner, keys: set}
}

func (h *redactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *redactHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redact(a))
		return true
	})
	return h.inner.Handle(ctx, out)
}

func (h *redactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = h.redact(a)
	}
	return &redactHandler{inner: h.inner.WithAttrs(clean), keys: h.keys}
}

func (h *redactHandler) WithGroup(name string) slog.Handler {
	return &redactHandler{inner: h.inner.WithGroup(name), keys: h.keys}
}

func (h *redactHandler) redact(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		clean := make([]slog.Attr, len(group))
		for i, g := range group {
			clean[i] = h.redact(g)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(clean...)}
	}

	key := strings.ToLower(a.Key)
	if i := strings.LastIndexByte(key, '.'); i >= 0 {
		key = key[i+1:]
	}
	if _, ok := h.keys[key]; ok {
		return slog.String(a.Key, Redacted)
	}
	return a
}
