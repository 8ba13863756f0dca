package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/papercomputeco/tracememory/pkg/dotdir"
)

// EnvPrefix is the prefix of every tracememory environment variable.
const EnvPrefix = "TRACEMEMORY"

// envAliases are the unprefixed variable names still honored for each key,
// checked after the prefixed name.
var envAliases = map[string][]string{
	"memory.api_key":         {"ZEP_API_KEY"},
	"memory.api_url":         {"ZEP_API_URL"},
	"memory.min_fact_rating": {"MIN_FACT_RATING"},
	"llm.api_key":            {"OPENAI_API_KEY"},
	"llm.model":              {"OPENAI_MODEL"},
	"llm.ollama_host":        {"OLLAMA_HOST"},
	"llm.ollama_model":       {"OLLAMA_MODEL"},
	"user.first_name":        {"FIRST_NAME"},
	"user.last_name":         {"LAST_NAME"},
}

// InitViper creates and returns a configured *viper.Viper.
// It loads ./.env, sets defaults from NewDefaultConfig(), reads the
// config.toml file (if found via dotdir resolution), and binds environment
// variables with the TRACEMEMORY_ prefix plus the legacy aliases.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (TRACEMEMORY_MEMORY_API_KEY, ZEP_API_KEY, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: TRACEMEMORY_API_LISTEN, TRACEMEMORY_LLM_MODEL, etc.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, aliases := range envAliases {
		names := append([]string{EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, aliases...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	return v, nil
}

// LoadDotEnv loads variables from path without overriding ones already set.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// FromViper materializes the effective configuration.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Memory: MemoryConfig{
			Provider:        v.GetString("memory.provider"),
			APIKey:          v.GetString("memory.api_key"),
			APIURL:          v.GetString("memory.api_url"),
			MinFactRating:   v.GetFloat64("memory.min_fact_rating"),
			CacheTTL:        v.GetString("memory.cache_ttl"),
			MaxContextChars: v.GetInt("memory.max_context_chars"),
		},
		LLM: LLMConfig{
			Provider:    v.GetString("llm.provider"),
			APIKey:      v.GetString("llm.api_key"),
			Model:       v.GetString("llm.model"),
			BaseURL:     v.GetString("llm.base_url"),
			OllamaHost:  v.GetString("llm.ollama_host"),
			OllamaModel: v.GetString("llm.ollama_model"),
		},
		User: UserConfig{
			FirstName: v.GetString("user.first_name"),
			LastName:  v.GetString("user.last_name"),
		},
		API: APIConfig{
			Listen: v.GetString("api.listen"),
		},
		Storage: StorageConfig{
			Dir: v.GetString("storage.dir"),
		},
		Transcript: TranscriptConfig{
			RedisURL: v.GetString("transcript.redis_url"),
			TTL:      v.GetString("transcript.ttl"),
		},
		Telemetry: TelemetryConfig{
			KafkaBrokers: v.GetString("telemetry.kafka_brokers"),
			KafkaTopic:   v.GetString("telemetry.kafka_topic"),
		},
	}
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Memory
	v.SetDefault("memory.provider", d.Memory.Provider)
	v.SetDefault("memory.api_key", d.Memory.APIKey)
	v.SetDefault("memory.api_url", d.Memory.APIURL)
	v.SetDefault("memory.min_fact_rating", d.Memory.MinFactRating)
	v.SetDefault("memory.cache_ttl", d.Memory.CacheTTL)
	v.SetDefault("memory.max_context_chars", d.Memory.MaxContextChars)

	// LLM
	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.ollama_host", d.LLM.OllamaHost)
	v.SetDefault("llm.ollama_model", d.LLM.OllamaModel)

	// User
	v.SetDefault("user.first_name", d.User.FirstName)
	v.SetDefault("user.last_name", d.User.LastName)

	// API
	v.SetDefault("api.listen", d.API.Listen)

	// Storage
	v.SetDefault("storage.dir", d.Storage.Dir)

	// Transcript
	v.SetDefault("transcript.redis_url", d.Transcript.RedisURL)
	v.SetDefault("transcript.ttl", d.Transcript.TTL)

	// Telemetry
	v.SetDefault("telemetry.kafka_brokers", d.Telemetry.KafkaBrokers)
	v.SetDefault("telemetry.kafka_topic", d.Telemetry.KafkaTopic)
}
