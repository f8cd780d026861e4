package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"github.com/lucasnoah/github-checks/internal/config"
	"github.com/lucasnoah/github-checks/internal/github"
)

var version = "dev"

func SetVersion(v string) {
	version = v
}

var (
	verbose     bool
	sessionFile string
	envFile     string

	// env is loaded before every command runs. Flags take precedence over it.
	env = &config.Env{}
)

var rootCmd = &cobra.Command{
	Use:   "github-checks",
	Short: "github-checks reports linter and type checker output as GitHub check runs",
	Long: `github-checks turns the output of static analysis tools (mypy, pyright, ruff,
SARIF producers, check-jsonschema or plain text) into GitHub check runs with
line-level annotations.

A typical CI job runs:

  github-checks init
  github-checks start-check-run --check-name mypy
  mypy -O json src > mypy.jsonl
  github-checks finish-check-run mypy.jsonl --log-format mypy-json

Credentials and defaults are read from GH_* environment variables, optionally
seeded from a dotenv file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger := clog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		ctx := clog.WithLogger(cmd.Context(), logger)
		cmd.SetContext(ctx)

		e, err := config.LoadEnv(ctx, envFile)
		if err != nil {
			return err
		}
		env = e
		return nil
	},
}

// Execute runs the command tree.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

// sessionPath resolves the session file: flag, then environment, then default.
func sessionPath() string {
	return firstNonEmpty(sessionFile, env.SessionFile, github.DefaultSessionPath())
}

func loadSession() (*github.Session, string, error) {
	path := sessionPath()
	s, err := github.LoadSession(path)
	if err != nil {
		return nil, "", err
	}
	return s, path, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(values ...int64) int64 {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

func requireValue(value, flag, envVar string) error {
	if value == "" {
		return fmt.Errorf("--%s (or %s) is required", flag, envVar)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&sessionFile, "session-file", "", "path to the checks session file (env GH_CHECKS_SESSION_FILE)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file consulted for GH_* variables not set in the environment")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(annotateCmd)
	rootCmd.AddCommand(finishCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(formatsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(dbCmd)
}
