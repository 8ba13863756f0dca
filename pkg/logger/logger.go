// Package logger builds the *slog.Logger instances used across tracememory.
//
// Three handler flavors are available: slog's text handler (default), slog's
// JSON handler for service logs, and the charmbracelet/log handler for
// colorized console output in interactive commands.
package logger

import (
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
)

type config struct {
	level   slog.Level
	pretty  bool
	json    bool
	source  bool
	writers []io.Writer
	secrets []string
}

// New creates a *slog.Logger configured by the given options.
// JSON takes precedence over pretty when both are set. Attributes named in
// DefaultSecretKeys, plus any added with WithSecretKeys, are redacted.
func New(opts ...Option) *slog.Logger {
	c := &config{
		level:   slog.LevelInfo,
		secrets: DefaultSecretKeys,
	}
	for _, opt := range opts {
		opt(c)
	}

	var w io.Writer
	switch len(c.writers) {
	case 0:
		w = os.Stdout
	case 1:
		w = c.writers[0]
	default:
		w = io.MultiWriter(c.writers...)
	}

	var h slog.Handler
	switch {
	case c.json:
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     c.level,
			AddSource: c.source,
		})

	case c.pretty:
		h = charmlog.NewWithOptions(w, charmlog.Options{
			Level:           charmlog.Level(c.level),
			ReportTimestamp: true,
			ReportCaller:    c.source,
		})

	default:
		h = slog.NewTextHandler(w, &slog.HandlerOptions{
			Level:     c.level,
			AddSource: c.source,
		})
	}
	return slog.New(newRedactHandler(h, c.secrets))
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
