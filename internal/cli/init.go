package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"github.com/lucasnoah/github-checks/internal/github"
)

var (
	initAppID     int64
	initInstallID int64
	initPEMPath   string
	initRepoURL   string
	initOverwrite bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Authenticate as the GitHub App and create a checks session",
	Long: `Exchange the GitHub App's private key for an installation token and store it,
together with the target repository, in the session file used by the other
commands. An existing session is kept unless --overwrite-existing is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		repoURL := firstNonEmpty(initRepoURL, env.RepoBaseURL)
		if err := requireValue(repoURL, "repo-base-url", "GH_REPO_BASE_URL"); err != nil {
			return err
		}
		ref, err := github.ParseRepoURL(repoURL)
		if err != nil {
			return err
		}

		path := sessionPath()
		if !initOverwrite {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%w: %s (use --overwrite-existing to replace it)", github.ErrSessionExists, path)
			} else if !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("stat session file: %w", err)
			}
		}

		token, err := github.Authenticate(ctx, github.AppCredentials{
			AppID:          firstNonZero(initAppID, env.AppID),
			InstallationID: firstNonZero(initInstallID, env.AppInstallID),
			PrivateKeyPath: firstNonEmpty(initPEMPath, env.PrivateKeyPEM),
			APIBaseURL:     ref.APIBaseURL,
		}, nil)
		if err != nil {
			return err
		}

		s, err := github.NewSession(repoURL, token)
		if err != nil {
			return err
		}
		if err := s.Save(path, initOverwrite); err != nil {
			return err
		}

		clog.FromContext(ctx).Debugf("session for %s written to %s", ref.FullName(), path)
		fmt.Fprintf(cmd.OutOrStdout(), "Initialized checks session for %s\n", ref.FullName())
		return nil
	},
}

func init() {
	initCmd.Flags().Int64Var(&initAppID, "app-id", 0, "GitHub App id (env GH_APP_ID)")
	initCmd.Flags().Int64Var(&initInstallID, "app-install-id", 0, "GitHub App installation id (env GH_APP_INSTALL_ID)")
	initCmd.Flags().StringVar(&initPEMPath, "pem-path", "", "path to the App's private key (env GH_PRIVATE_KEY_PEM)")
	initCmd.Flags().StringVar(&initRepoURL, "repo-base-url", "", "repository URL, e.g. https://github.com/owner/repo (env GH_REPO_BASE_URL)")
	initCmd.Flags().BoolVar(&initOverwrite, "overwrite-existing", false, "replace an existing session")
}
