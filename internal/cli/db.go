package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/github-checks/internal/db"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the check run history database",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cleanup, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()
		fmt.Fprintln(cmd.OutOrStdout(), "Database schema is up to date.")
		return nil
	},
}

var dbResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop all recorded history and recreate the schema (destructive!)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return errors.New("refusing to reset without --yes")
		}
		ctx := cmd.Context()
		d, err := db.Open(ctx, env.DatabaseURL)
		if err != nil {
			return err
		}
		defer d.Close()
		if err := d.Reset(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Database reset.")
		return nil
	},
}

// openDB connects to the history database and applies the schema.
func openDB(ctx context.Context) (*db.DB, func(), error) {
	if env.DatabaseURL == "" {
		return nil, nil, errors.New("no history database configured (set GH_CHECKS_DATABASE_URL)")
	}
	d, err := db.Open(ctx, env.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := d.Migrate(ctx); err != nil {
		d.Close()
		return nil, nil, err
	}
	return d, d.Close, nil
}

func init() {
	dbResetCmd.Flags().Bool("yes", false, "confirm the reset")
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbResetCmd)
}
