package cli

import (
	"context"
	"fmt"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"github.com/lucasnoah/github-checks/internal/checks"
	"github.com/lucasnoah/github-checks/internal/db"
	"github.com/lucasnoah/github-checks/internal/github"
)

var (
	finishOpts       logOptions
	finishConclusion string
	finishNoCleanup  bool
)

var finishCmd = &cobra.Command{
	Use:   "finish-check-run [log]",
	Short: "Complete the running check run, optionally with annotations from a tool log",
	Long: `Parse the tool log (if given) with --log-format and complete the running
check run with its title, summary, annotations and conclusion. --conclusion
overrides the computed verdict. The session file is removed afterwards unless
--no-cleanup is set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		s, path, err := loadSession()
		if err != nil {
			return err
		}
		if !s.Running() {
			return github.ErrNoRunningCheck
		}

		var out *checks.Output
		var conclusion checks.Conclusion
		if len(args) == 1 {
			root, err := repoRoot(finishOpts.repoPath, s)
			if err != nil {
				return err
			}
			if out, conclusion, err = finishOpts.parse(ctx, args[0], root); err != nil {
				return err
			}
		}
		if finishConclusion != "" {
			if conclusion, err = checks.ParseConclusion(finishConclusion); err != nil {
				return err
			}
		}

		rec := db.CheckRun{
			Repo:       s.Owner + "/" + s.Repo,
			HeadSHA:    s.HeadSHA,
			CheckName:  s.CheckName,
			RunID:      s.RunID,
			ExternalID: s.ExternalID,
			LogFormat:  finishOpts.format,
			StartedAt:  s.StartedAt,
		}

		c, err := github.NewChecks(ctx, s)
		if err != nil {
			return err
		}
		if err := c.Finish(ctx, out, conclusion); err != nil {
			return err
		}

		rec.Conclusion = s.Conclusion
		rec.Title = s.Title
		if out != nil {
			rec.Failures, rec.Warnings, rec.Notices = db.CountLevels(out.Annotations)
		}
		if env.DatabaseURL != "" {
			if err := recordRun(ctx, rec); err != nil {
				clog.FromContext(ctx).Warnf("check run %d finished but was not recorded: %v", rec.RunID, err)
			}
		}

		if finishNoCleanup {
			if err := s.Save(path, true); err != nil {
				return err
			}
		} else if err := github.RemoveSession(path); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Finished check run %d (%s): %s\n", rec.RunID, rec.CheckName, rec.Conclusion)
		return nil
	},
}

func recordRun(ctx context.Context, rec db.CheckRun) error {
	d, cleanup, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	id, err := d.LogCheckRun(ctx, rec)
	if err != nil {
		return err
	}
	clog.FromContext(ctx).Debugf("recorded check run %d as history row %d", rec.RunID, id)
	return nil
}

func init() {
	finishOpts.register(finishCmd.Flags())
	finishCmd.Flags().StringVar(&finishConclusion, "conclusion", "", "override the conclusion (success, action_required, cancelled)")
	finishCmd.Flags().BoolVar(&finishNoCleanup, "no-cleanup", false, "keep the session file after finishing")
}
