package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/github-checks/internal/checks"
)

var runCmd = &cobra.Command{
	Use:   "run [checks...]",
	Short: "Run configured checks locally and report a gate result",
	Long: `Run the named checks (or the project's default checks) from the project
config, parse each tool's output with its configured format and print whether
every check concluded success.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cont, _ := cmd.Flags().GetBool("continue")
		format, _ := cmd.Flags().GetString("format")
		dir, _ := cmd.Flags().GetString("dir")

		cfg, err := loadProjectConfig()
		if err != nil {
			return err
		}
		dir = firstNonEmpty(dir, cfg.Project.RepoPath, env.LocalRepoPath, ".")
		if dir, err = filepath.Abs(dir); err != nil {
			return fmt.Errorf("resolve working directory: %w", err)
		}

		checkCfgs, err := cfg.Project.RunnerChecks(args, dir)
		if err != nil {
			return err
		}
		if len(checkCfgs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No checks configured.")
			return nil
		}

		runner := checks.NewRunner(&checks.ExecRunner{}, nil)
		gate, _, err := runner.RunGate(cmd.Context(), checks.GateOpts{
			Dir:      dir,
			Checks:   checkCfgs,
			Continue: cont,
		})
		if err != nil {
			return fmt.Errorf("run gate: %w", err)
		}

		w := cmd.OutOrStdout()
		if format == "json" {
			jsonStr, err := gate.JSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(w, jsonStr)
		} else {
			for _, c := range gate.Checks {
				icon := "PASS"
				if c.Conclusion != checks.ConclusionSuccess {
					icon = "FAIL"
				}
				fmt.Fprintf(w, "[%s] %s: %s (%dms)\n", icon, c.Check, c.Title, c.DurationMs)
			}
			if gate.Passed {
				fmt.Fprintln(w, "\nGate PASSED")
			} else {
				fmt.Fprintln(w, "\nGate FAILED")
			}
		}

		if !gate.Passed {
			return fmt.Errorf("gate failed: %d check(s) need attention", len(gate.Failed))
		}
		return nil
	},
}

func init() {
	runCmd.Flags().Bool("continue", false, "run all checks even if one fails")
	runCmd.Flags().String("format", "text", "output format: text or json")
	runCmd.Flags().String("dir", "", "directory to run the checks in (default: project repo_path or current directory)")
}
