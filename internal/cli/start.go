package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"github.com/lucasnoah/github-checks/internal/github"
)

// gitRunner resolves HEAD when no revision is configured. Replaced in tests.
var gitRunner github.GitRunner = github.ExecGit{}

var (
	startRevision string
	startName     string
	startRepoPath string
)

var startCmd = &cobra.Command{
	Use:   "start-check-run",
	Short: "Create an in-progress check run for a commit",
	Long: `Create an in-progress check run named --check-name on --revision-sha and record
it in the session. Without a revision the HEAD of the local repository is used.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		name := firstNonEmpty(startName, env.CheckName)
		if err := requireValue(name, "check-name", "GH_CHECK_NAME"); err != nil {
			return err
		}

		s, path, err := loadSession()
		if err != nil {
			return err
		}

		sha := firstNonEmpty(startRevision, env.CheckRevision)
		if sha == "" {
			dir, err := repoRoot(startRepoPath, s)
			if err != nil {
				dir = "."
			}
			clog.FromContext(ctx).Debugf("no revision configured, reading HEAD of %s", dir)
			if sha, err = github.HeadRevision(ctx, gitRunner, dir); err != nil {
				return fmt.Errorf("resolve revision (set --revision-sha or GH_CHECK_REVISION): %w", err)
			}
		}

		c, err := github.NewChecks(ctx, s)
		if err != nil {
			return err
		}
		if err := c.Start(ctx, sha, name); err != nil {
			return err
		}
		if err := c.Session().Save(path, true); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Started check run %d (%s) on %s\n", s.RunID, name, sha)
		return nil
	},
}

// repoRoot resolves the local checkout used to relativize tool paths: the
// flag, then GH_LOCAL_REPO_PATH, then ./<repository name>. The directory must exist.
func repoRoot(flag string, s *github.Session) (string, error) {
	root := firstNonEmpty(flag, env.LocalRepoPath, filepath.Join(".", s.Repo))
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("local repository root %s not found (set --local-repo-path or GH_LOCAL_REPO_PATH)", root)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve repository root: %w", err)
	}
	return abs, nil
}

func init() {
	startCmd.Flags().StringVar(&startRevision, "revision-sha", "", "commit to attach the check run to (env GH_CHECK_REVISION)")
	startCmd.Flags().StringVar(&startName, "check-name", "", "check run name (env GH_CHECK_NAME)")
	startCmd.Flags().StringVar(&startRepoPath, "local-repo-path", "", "local checkout used to read HEAD (env GH_LOCAL_REPO_PATH)")
}
