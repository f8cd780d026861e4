package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/github-checks/internal/github"
)

var annotateOpts logOptions

var annotateCmd = &cobra.Command{
	Use:   "add-check-annotations <log>",
	Short: "Upload annotations from a tool log without completing the check run",
	Long: `Parse a tool log and attach its annotations to the running check run. The
most severe conclusion seen is remembered and used by finish-check-run when it
is called without a log.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		s, path, err := loadSession()
		if err != nil {
			return err
		}
		if !s.Running() {
			return github.ErrNoRunningCheck
		}
		root, err := repoRoot(annotateOpts.repoPath, s)
		if err != nil {
			return err
		}
		out, conclusion, err := annotateOpts.parse(ctx, args[0], root)
		if err != nil {
			return err
		}

		c, err := github.NewChecks(ctx, s)
		if err != nil {
			return err
		}
		if err := c.Annotate(ctx, out, conclusion); err != nil {
			return err
		}
		if err := c.Session().Save(path, true); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Added %d annotation(s) to check run %d (%s)\n", len(out.Annotations), s.RunID, s.CheckName)
		return nil
	},
}

func init() {
	annotateOpts.register(annotateCmd.Flags())
}
