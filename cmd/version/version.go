// Package versioncmder
package versioncmder

import (
	"fmt"
	"io"
	goruntime "runtime"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/tracememory/pkg/cliui"
	"github.com/papercomputeco/tracememory/pkg/utils"
)

func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "displays version",
		Long:  "displays the version, commit and build time of this CLI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.OutOrStdout())
		},
	}
}

func run(w io.Writer) error {
	rows := [][2]string{
		{"Version:", utils.Version},
		{"Sha:", utils.Sha},
		{"Built at:", utils.Buildtime},
		{"Go:", goruntime.Version()},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%-9s %s\n", r[0], cliui.ValueStyle.Render(r[1]))
	}
	return nil
}
