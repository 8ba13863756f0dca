package config

import (
	"fmt"
	"strconv"

	"github.com/spf13/cast"
)

// Config represents the persistent tracememory configuration stored as
// config.toml in the .tracememory/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version    int              `toml:"version"`
	Memory     MemoryConfig     `toml:"memory"`
	LLM        LLMConfig        `toml:"llm"`
	User       UserConfig       `toml:"user"`
	API        APIConfig        `toml:"api"`
	Storage    StorageConfig    `toml:"storage"`
	Transcript TranscriptConfig `toml:"transcript"`
	Telemetry  TelemetryConfig  `toml:"telemetry"`
}

// MemoryConfig holds memory backend settings.
type MemoryConfig struct {
	// Provider is "zep" or "local".
	Provider string `toml:"provider,omitempty"`
	APIKey   string `toml:"api_key,omitempty"`
	APIURL   string `toml:"api_url,omitempty"`

	MinFactRating   float64 `toml:"min_fact_rating,omitempty"`
	CacheTTL        string  `toml:"cache_ttl,omitempty"`
	MaxContextChars int     `toml:"max_context_chars,omitempty"`
}

// LLMConfig holds chat model settings.
type LLMConfig struct {
	// Provider is "openai" or "ollama". Empty selects openai when an API key
	// is configured and ollama otherwise.
	Provider    string `toml:"provider,omitempty"`
	APIKey      string `toml:"api_key,omitempty"`
	Model       string `toml:"model,omitempty"`
	BaseURL     string `toml:"base_url,omitempty"`
	OllamaHost  string `toml:"ollama_host,omitempty"`
	OllamaModel string `toml:"ollama_model,omitempty"`
}

// UserConfig holds the default identity used by the chat command.
type UserConfig struct {
	FirstName string `toml:"first_name,omitempty"`
	LastName  string `toml:"last_name,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// StorageConfig holds the local user store location.
type StorageConfig struct {
	Dir string `toml:"dir,omitempty"`
}

// TranscriptConfig selects the transcript store. An empty RedisURL keeps
// transcripts in memory.
type TranscriptConfig struct {
	RedisURL string `toml:"redis_url,omitempty"`
	TTL      string `toml:"ttl,omitempty"`
}

// TelemetryConfig configures turn event publishing. An empty broker list
// disables publishing.
type TelemetryConfig struct {
	KafkaBrokers string `toml:"kafka_brokers,omitempty"`
	KafkaTopic   string `toml:"kafka_topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get    func(c *Config) string
	set    func(c *Config, v string) error
	secret bool
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func secretKey(field func(c *Config) *string) configKeyInfo {
	info := stringKey(field)
	info.secret = true
	return info
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"memory.provider": stringKey(func(c *Config) *string { return &c.Memory.Provider }),
	"memory.api_key":  secretKey(func(c *Config) *string { return &c.Memory.APIKey }),
	"memory.api_url":  stringKey(func(c *Config) *string { return &c.Memory.APIURL }),
	"memory.min_fact_rating": {
		get: func(c *Config) string { return strconv.FormatFloat(c.Memory.MinFactRating, 'f', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := cast.ToFloat64E(v)
			if err != nil {
				return fmt.Errorf("invalid value for memory.min_fact_rating: %w", err)
			}
			if f < 0 || f > 1 {
				return fmt.Errorf("invalid value for memory.min_fact_rating: %v is outside [0, 1]", f)
			}
			c.Memory.MinFactRating = f
			return nil
		},
	},
	"memory.cache_ttl": stringKey(func(c *Config) *string { return &c.Memory.CacheTTL }),
	"memory.max_context_chars": {
		get: func(c *Config) string {
			if c.Memory.MaxContextChars == 0 {
				return ""
			}
			return strconv.Itoa(c.Memory.MaxContextChars)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid value for memory.max_context_chars: %q", v)
			}
			c.Memory.MaxContextChars = n
			return nil
		},
	},

	"llm.provider":     stringKey(func(c *Config) *string { return &c.LLM.Provider }),
	"llm.api_key":      secretKey(func(c *Config) *string { return &c.LLM.APIKey }),
	"llm.model":        stringKey(func(c *Config) *string { return &c.LLM.Model }),
	"llm.base_url":     stringKey(func(c *Config) *string { return &c.LLM.BaseURL }),
	"llm.ollama_host":  stringKey(func(c *Config) *string { return &c.LLM.OllamaHost }),
	"llm.ollama_model": stringKey(func(c *Config) *string { return &c.LLM.OllamaModel }),

	"user.first_name": stringKey(func(c *Config) *string { return &c.User.FirstName }),
	"user.last_name":  stringKey(func(c *Config) *string { return &c.User.LastName }),

	"api.listen": stringKey(func(c *Config) *string { return &c.API.Listen }),

	"storage.dir": stringKey(func(c *Config) *string { return &c.Storage.Dir }),

	"transcript.redis_url": secretKey(func(c *Config) *string { return &c.Transcript.RedisURL }),
	"transcript.ttl":       stringKey(func(c *Config) *string { return &c.Transcript.TTL }),

	"telemetry.kafka_brokers": stringKey(func(c *Config) *string { return &c.Telemetry.KafkaBrokers }),
	"telemetry.kafka_topic":   stringKey(func(c *Config) *string { return &c.Telemetry.KafkaTopic }),
}
