// Package tracememorycmder
package tracememorycmder

import (
	"github.com/spf13/cobra"

	chatcmder "github.com/papercomputeco/tracememory/cmd/tracememory/chat"
	configcmder "github.com/papercomputeco/tracememory/cmd/tracememory/config"
	servecmder "github.com/papercomputeco/tracememory/cmd/tracememory/serve"
	versioncmder "github.com/papercomputeco/tracememory/cmd/version"
)

const tracememoryLongDesc string = `TraceMemory is a memory-aware chat copilot.

Every turn is grounded in long-term memory about the user, cached per
session and injected into the model prompt.

Run it using:
  tracememory chat      Chat in the terminal
  tracememory serve     Run the HTTP and MCP API
  tracememory config    Manage persistent configuration`

const tracememoryShortDesc string = "TraceMemory - Memory-Aware Copilot"

func NewTraceMemoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "tracememory",
		Short:        tracememoryShortDesc,
		Long:         tracememoryLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .tracememory/ directory holding config.toml")

	// Add subcommands
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
