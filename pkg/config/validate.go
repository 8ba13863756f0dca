package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/papercomputeco/tracememory/pkg/apperr"
	"github.com/papercomputeco/tracememory/pkg/llm/provider"
)

const minKeyLength = 10

// Validate checks credentials and durations before anything touches the
// network. Hard failures are returned as *apperr.ConfigError; suspicious but
// usable values are returned as warnings.
func (c *Config) Validate() ([]string, error) {
	var warnings []string

	switch c.Memory.Provider {
	case "zep":
		key := strings.TrimSpace(c.Memory.APIKey)
		if key == "" {
			return nil, &apperr.ConfigError{Field: "memory.api_key", Msg: "a Zep API key is required"}
		}
		if len(key) < minKeyLength {
			return nil, &apperr.ConfigError{Field: "memory.api_key", Msg: "Zep API key appears too short, check that the complete key was pasted"}
		}
		switch {
		case strings.HasPrefix(key, "sk-"):
			warnings = append(warnings, "Zep API key starts with 'sk-', which looks like an OpenAI key")
		case !strings.HasPrefix(key, "z_"):
			warnings = append(warnings, "Zep API key format looks unusual, Zep keys typically start with 'z_'")
		case strings.Count(key, ".") < 2:
			warnings = append(warnings, "Zep API key format looks unusual, Zep JWT tokens typically have 3 parts separated by dots")
		}
	case "local":
	default:
		return nil, &apperr.ConfigError{Field: "memory.provider", Msg: fmt.Sprintf("unknown memory provider %q (supported: zep, local)", c.Memory.Provider)}
	}

	name := provider.Resolve(provider.Config{Provider: c.LLM.Provider, APIKey: c.LLM.APIKey})
	switch name {
	case provider.OpenAI:
		key := strings.TrimSpace(c.LLM.APIKey)
		if key == "" {
			return nil, &apperr.ConfigError{Field: "llm.api_key", Msg: "an OpenAI API key is required"}
		}
		if len(key) < minKeyLength {
			return nil, &apperr.ConfigError{Field: "llm.api_key", Msg: "OpenAI API key appears too short, check that the complete key was pasted"}
		}
		if !strings.HasPrefix(key, "sk-") {
			warnings = append(warnings, "OpenAI API key format looks unusual, OpenAI keys typically start with 'sk-'")
		} else if len(key) < 50 {
			warnings = append(warnings, "OpenAI API key appears incomplete")
		}
	case provider.Ollama:
	default:
		return nil, &apperr.ConfigError{Field: "llm.provider", Msg: fmt.Sprintf("unknown llm provider %q (supported: %v)", name, provider.SupportedProviders())}
	}

	if c.Memory.MinFactRating < 0 || c.Memory.MinFactRating > 1 {
		return nil, &apperr.ConfigError{Field: "memory.min_fact_rating", Msg: "must be between 0 and 1"}
	}

	if _, err := c.Memory.TTL(); err != nil {
		return nil, &apperr.ConfigError{Field: "memory.cache_ttl", Msg: err.Error()}
	}
	if _, err := c.Transcript.Expiry(); err != nil {
		return nil, &apperr.ConfigError{Field: "transcript.ttl", Msg: err.Error()}
	}

	return warnings, nil
}

// TTL parses CacheTTL. Empty means the default.
func (m MemoryConfig) TTL() (time.Duration, error) {
	return parseDuration(m.CacheTTL, defaultCacheTTL)
}

// Expiry parses the transcript TTL. Empty means transcripts never expire.
func (t TranscriptConfig) Expiry() (time.Duration, error) {
	return parseDuration(t.TTL, "0s")
}

// Brokers splits the comma separated broker list.
func (t TelemetryConfig) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(t.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func parseDuration(s, fallback string) (time.Duration, error) {
	if strings.TrimSpace(s) == "" {
		s = fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid duration %q: must not be negative", s)
	}
	return d, nil
}
