package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --provider
// on both "tracememory chat" and "tracememory serve").
type Flag struct {
	// Name is the long flag name (e.g. "provider").
	Name string

	// Shorthand is the one-letter short flag (e.g. "p"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "llm.provider").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddFloat64Flag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagListen         = "listen"
	FlagMemoryProvider = "memory-provider"
	FlagMinRating      = "min-rating"
	FlagLLMProvider    = "provider"
	FlagModel          = "model"
	FlagOllamaHost     = "ollama-host"
	FlagFirstName      = "first-name"
	FlagLastName       = "last-name"
	FlagStorageDir     = "storage-dir"
	FlagRedisURL       = "redis-url"
	FlagKafkaBrokers   = "kafka-brokers"
)

// Flags is the registry shared by every command.
var Flags = FlagSet{
	FlagListen:         {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for the API server to listen on"},
	FlagMemoryProvider: {Name: "memory-provider", ViperKey: "memory.provider", Description: "Memory backend (zep, local)"},
	FlagMinRating:      {Name: "min-rating", ViperKey: "memory.min_fact_rating", Description: "Minimum fact rating included in memory context (0-1)"},
	FlagLLMProvider:    {Name: "provider", Shorthand: "p", ViperKey: "llm.provider", Description: "Chat model provider (openai, ollama)"},
	FlagModel:          {Name: "model", Shorthand: "m", ViperKey: "llm.model", Description: "OpenAI model name"},
	FlagOllamaHost:     {Name: "ollama-host", ViperKey: "llm.ollama_host", Description: "Ollama server URL"},
	FlagFirstName:      {Name: "first-name", ViperKey: "user.first_name", Description: "First name used to derive the user id"},
	FlagLastName:       {Name: "last-name", ViperKey: "user.last_name", Description: "Last name used to derive the user id"},
	FlagStorageDir:     {Name: "storage-dir", ViperKey: "storage.dir", Description: "Directory for per-user session and pin files"},
	FlagRedisURL:       {Name: "redis-url", ViperKey: "transcript.redis_url", Description: "Redis URL for durable transcripts"},
	FlagKafkaBrokers:   {Name: "kafka-brokers", ViperKey: "telemetry.kafka_brokers", Description: "Comma separated Kafka brokers for turn events"},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddFloat64Flag registers a float64 flag on cmd from the given FlagSet.
func AddFloat64Flag(cmd *cobra.Command, fs FlagSet, registryKey string, target *float64) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultFloat64(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().Float64VarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().Float64Var(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultFloat64 returns the default float value for a viper key from NewDefaultConfig.
func defaultFloat64(viperKey string) float64 {
	v := viper.New()
	setViperDefaults(v)
	return v.GetFloat64(viperKey)
}

// LoadForCommand resolves the effective configuration for cmd: the
// --config-dir override, config.toml, the environment and the flags named
// by registryKeys.
func LoadForCommand(cmd *cobra.Command, registryKeys []string) (*Config, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := InitViper(configDir)
	if err != nil {
		return nil, err
	}

	BindRegisteredFlags(v, cmd, Flags, registryKeys)
	return FromViper(v), nil
}
