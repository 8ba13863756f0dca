// Package configcmder provides the config command for managing persistent
// tracememory configuration stored in the .tracememory/ directory.
package configcmder

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/tracememory/pkg/config"
)

const configLongDesc string = `Manage persistent tracememory configuration.

Configuration is stored as config.toml in the .tracememory/ directory.
Environment variables (TRACEMEMORY_*, ZEP_API_KEY, OPENAI_API_KEY, ...) and
a local .env file override it, and CLI flags override both.

Keys use dotted notation matching the TOML section structure:
  memory.provider, memory.api_key, memory.min_fact_rating,
  llm.provider, llm.api_key, llm.model, llm.ollama_host,
  user.first_name, user.last_name, api.listen, storage.dir,
  transcript.redis_url, telemetry.kafka_brokers

Secret values are masked when read back.

Examples:
  tracememory config set memory.provider local
  tracememory config set llm.api_key
  tracememory config get memory.min_fact_rating
  tracememory config list`

const configShortDesc string = "Manage persistent tracememory configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

// mask hides all but the last four characters of a secret.
func mask(key, value string) string {
	if value == "" || !config.IsSecretKey(key) {
		return value
	}
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", 8) + value[len(value)-4:]
}
