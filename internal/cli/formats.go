package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/github-checks/internal/checks"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List the supported --log-format values",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, f := range checks.DefaultRegistry().Formats() {
			fmt.Fprintln(cmd.OutOrStdout(), f)
		}
	},
}
