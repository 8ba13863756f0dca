package config

import "github.com/papercomputeco/tracememory/pkg/dotdir"

const (
	defaultMemoryProvider  = "zep"
	defaultMinFactRating   = 0.7
	defaultCacheTTL        = "30s"
	defaultMaxContextChars = 4000

	defaultLLMModel    = "gpt-4o-mini"
	defaultOllamaHost  = "http://127.0.0.1:11434"
	defaultOllamaModel = "qwen3:4b"

	defaultAPIListen = ":8082"

	defaultKafkaTopic = "tracememory.turns"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Memory: MemoryConfig{
			Provider:        defaultMemoryProvider,
			MinFactRating:   defaultMinFactRating,
			CacheTTL:        defaultCacheTTL,
			MaxContextChars: defaultMaxContextChars,
		},
		LLM: LLMConfig{
			Model:       defaultLLMModel,
			OllamaHost:  defaultOllamaHost,
			OllamaModel: defaultOllamaModel,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Storage: StorageConfig{
			Dir: dotdir.DirName,
		},
		Telemetry: TelemetryConfig{
			KafkaTopic: defaultKafkaTopic,
		},
	}
}
