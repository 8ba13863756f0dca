// Package start assembles a copilot session from the effective configuration.
package start

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/tracememory/pkg/apperr"
	"github.com/papercomputeco/tracememory/pkg/config"
	"github.com/papercomputeco/tracememory/pkg/eventstream"
	"github.com/papercomputeco/tracememory/pkg/eventstream/kafka"
	"github.com/papercomputeco/tracememory/pkg/eventstream/nop"
	"github.com/papercomputeco/tracememory/pkg/llm/provider"
	"github.com/papercomputeco/tracememory/pkg/memory"
	"github.com/papercomputeco/tracememory/pkg/memory/cache"
	"github.com/papercomputeco/tracememory/pkg/memory/local"
	"github.com/papercomputeco/tracememory/pkg/memory/zep"
	"github.com/papercomputeco/tracememory/pkg/runtime"
	"github.com/papercomputeco/tracememory/pkg/store"
	"github.com/papercomputeco/tracememory/pkg/transcript"
	"github.com/papercomputeco/tracememory/pkg/transcript/inmemory"
	"github.com/papercomputeco/tracememory/pkg/transcript/redis"
)

// Result is a ready but uninitialized session plus the configuration
// warnings found while building it.
type Result struct {
	Session  *runtime.Session
	Warnings []string
}

// Build validates cfg and wires every collaborator of a runtime.Session.
// Nothing is left open when an error is returned.
func Build(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Result, error) {
	warnings, err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	backend, err := NewBackend(cfg.Memory, log)
	if err != nil {
		return nil, err
	}

	completer, err := provider.New(ctx, provider.Config{
		Provider:    cfg.LLM.Provider,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		OllamaHost:  cfg.LLM.OllamaHost,
		OllamaModel: cfg.LLM.OllamaModel,
	})
	if err != nil {
		return nil, fmt.Errorf("creating chat model: %w", err)
	}

	st, err := store.New(cfg.Storage.Dir)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}

	ttl, err := cfg.Memory.TTL()
	if err != nil {
		return nil, &apperr.ConfigError{Field: "memory.cache_ttl", Msg: err.Error()}
	}

	ts, err := NewTranscriptStore(ctx, cfg.Transcript, log)
	if err != nil {
		return nil, err
	}

	pub, err := NewPublisher(cfg.Telemetry, log)
	if err != nil {
		_ = ts.Close()
		return nil, err
	}

	sess, err := runtime.New(runtime.Config{
		Backend:    backend,
		Completer:  completer,
		Store:      st,
		Transcript: ts,
		Publisher:  pub,
		MinRating:  cfg.Memory.MinFactRating,
		Cache: cache.Config{
			TTL:      ttl,
			MaxChars: cfg.Memory.MaxContextChars,
			Logger:   log,
		},
		Logger: log,
	})
	if err != nil {
		_ = ts.Close()
		_ = pub.Close()
		return nil, err
	}

	log.Debug("session assembled",
		"memory_provider", cfg.Memory.Provider,
		"llm_provider", completer.Name(),
		"storage_dir", st.Dir(),
	)

	return &Result{Session: sess, Warnings: warnings}, nil
}

// NewBackend returns the memory backend named by cfg.Provider.
func NewBackend(cfg config.MemoryConfig, log *slog.Logger) (memory.Backend, error) {
	switch cfg.Provider {
	case "", "zep":
		return zep.NewClient(zep.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.APIURL,
			Logger:  log,
		})
	case "local":
		return local.NewBackend(local.Config{Enabled: true}), nil
	default:
		return nil, &apperr.ConfigError{Field: "memory.provider", Msg: fmt.Sprintf("unknown memory provider %q", cfg.Provider)}
	}
}

// NewTranscriptStore returns a Redis store when a URL is configured and an
// in-memory store otherwise.
func NewTranscriptStore(ctx context.Context, cfg config.TranscriptConfig, log *slog.Logger) (transcript.Store, error) {
	if cfg.RedisURL == "" {
		return inmemory.NewStore(), nil
	}

	ttl, err := cfg.Expiry()
	if err != nil {
		return nil, &apperr.ConfigError{Field: "transcript.ttl", Msg: err.Error()}
	}

	s, err := redis.NewStore(ctx, redis.Config{URL: cfg.RedisURL, TTL: ttl})
	if err != nil {
		return nil, fmt.Errorf("opening transcript store: %w", err)
	}
	log.Info("using redis transcript store", "redis_url", cfg.RedisURL, "ttl", ttl)
	return s, nil
}

// NewPublisher returns a Kafka publisher when brokers are configured and a
// no-op publisher otherwise.
func NewPublisher(cfg config.TelemetryConfig, log *slog.Logger) (eventstream.Publisher, error) {
	brokers := cfg.Brokers()
	if len(brokers) == 0 {
		return nop.NewPublisher(), nil
	}

	p, err := kafka.NewPublisher(kafka.Config{Brokers: brokers, Topic: cfg.KafkaTopic})
	if err != nil {
		return nil, fmt.Errorf("creating kafka publisher: %w", err)
	}
	log.Info("publishing turn events",
		"brokers", brokers,
		"topic", cfg.KafkaTopic,
	)
	return p, nil
}
