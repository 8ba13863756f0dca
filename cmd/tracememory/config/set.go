package configcmder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/tracememory/pkg/cliui"
	"github.com/papercomputeco/tracememory/pkg/config"
	"github.com/papercomputeco/tracememory/pkg/dotdir"
)

const setLongDesc string = `Set a configuration value.

Writes the value for the given key to the config.toml file in the
.tracememory/ directory, creating both when missing. When the value of a
secret key is omitted it is read from the terminal without echo.

Examples:
  tracememory config set memory.provider zep
  tracememory config set memory.min_fact_rating 0.5
  tracememory config set memory.api_key`

const setShortDesc string = "Set a configuration value"

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> [value]",
		Short: setShortDesc,
		Long:  setLongDesc,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			key := args[0]
			if len(args) == 2 {
				return runSet(cmd.OutOrStdout(), key, args[1], configDir)
			}

			if !config.IsSecretKey(key) {
				return fmt.Errorf("a value is required for %q", key)
			}
			value, err := readSecret(cmd.ErrOrStderr(), key)
			if err != nil {
				return err
			}
			return runSet(cmd.OutOrStdout(), key, value, configDir)
		},
		ValidArgsFunction: completeKeys,
	}

	return cmd
}

func readSecret(w io.Writer, key string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("stdin is not a terminal; pass the value as an argument")
	}

	fmt.Fprintf(w, "  %s ", cliui.KeyStyle.Render(key+":"))
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", key, err)
	}

	value := strings.TrimSpace(string(b))
	if value == "" {
		return "", fmt.Errorf("empty value for %s", key)
	}
	return value, nil
}

func runSet(w io.Writer, key, value, configDir string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}

	if _, err := dotdir.NewManager().Ensure(configDir); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	printTarget(w, cfger.GetTarget())

	if err := cfger.SetConfigValue(key, value); err != nil {
		return err
	}

	fmt.Fprintf(w, "  %s Set %s = %s\n\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(key),
		cliui.ValueStyle.Render(mask(key, value)),
	)
	return nil
}
