package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/github-checks/internal/analytics"
	"github.com/lucasnoah/github-checks/internal/db"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded check runs",
	Long: `List finished check runs recorded by finish-check-run, most recent first.
Requires GH_CHECKS_DATABASE_URL.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, _ := cmd.Flags().GetString("repo")
		checkName, _ := cmd.Flags().GetString("check")
		limit, _ := cmd.Flags().GetInt("limit")
		stats, _ := cmd.Flags().GetBool("stats")
		if stats && !cmd.Flags().Changed("limit") {
			limit = 1000
		}

		ctx := cmd.Context()
		d, cleanup, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		runs, err := d.GetCheckHistory(ctx, db.HistoryFilter{Repo: repo, CheckName: checkName, Limit: limit})
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No check runs found.")
			return nil
		}
		if stats {
			return writeStats(cmd.OutOrStdout(), analytics.Summarize(runs))
		}

		table := newTable(cmd.OutOrStdout(), []string{"Finished", "Repo", "Check", "SHA", "Conclusion", "F/W/N", "Title"})
		for _, r := range runs {
			sha := r.HeadSHA
			if len(sha) > 10 {
				sha = sha[:10]
			}
			_ = table.Append([]string{
				r.FinishedAt.Local().Format("2006-01-02 15:04"),
				r.Repo,
				r.CheckName,
				sha,
				string(r.Conclusion),
				strconv.Itoa(r.Failures) + "/" + strconv.Itoa(r.Warnings) + "/" + strconv.Itoa(r.Notices),
				r.Title,
			})
		}
		return table.Render()
	},
}

func writeStats(w io.Writer, stats []analytics.CheckStats) error {
	table := newTable(w, []string{"Repo", "Check", "Runs", "Action Req.", "Cancelled", "Avg Findings", "Avg", "P50", "P95"})
	for _, s := range stats {
		_ = table.Append([]string{
			s.Repo,
			s.Check,
			strconv.Itoa(s.Runs),
			fmt.Sprintf("%.1f%%", s.ActionRequired),
			fmt.Sprintf("%.1f%%", s.Cancelled),
			fmt.Sprintf("%.1f", s.AvgFindings),
			fmt.Sprintf("%.1fs", s.AvgSeconds),
			fmt.Sprintf("%.1fs", s.P50Seconds),
			fmt.Sprintf("%.1fs", s.P95Seconds),
		})
	}
	return table.Render()
}

func init() {
	historyCmd.Flags().String("repo", "", "only runs for owner/repo")
	historyCmd.Flags().String("check", "", "only runs of this check name")
	historyCmd.Flags().Int("limit", 20, "maximum number of runs (1000 with --stats)")
	historyCmd.Flags().Bool("stats", false, "show per-check conclusion rates and durations instead of individual runs")
}
