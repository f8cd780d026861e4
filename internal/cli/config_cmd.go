package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lucasnoah/github-checks/internal/config"
)

// projectConfigPath is shared by every command that reads check definitions.
var projectConfigPath string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Validate and inspect the checks defined in .github-checks.yaml",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check every defined check has a known log format and a usable command",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadProjectConfig()
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if errs := config.Validate(cfg); len(errs) > 0 {
			fmt.Fprintln(w, "Check definitions are invalid:")
			for _, e := range errs {
				fmt.Fprintf(w, "  - %s\n", e)
			}
			return fmt.Errorf("%d invalid check setting(s)", len(errs))
		}

		fmt.Fprintf(w, "Configuration is valid: %d check(s) using %s.\n",
			len(cfg.Project.Checks), strings.Join(formatsInUse(cfg.Project), ", "))
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the check definitions with defaults filled in",
	Long: `Print the project configuration with default timeouts, output files and
check names filled in. With --check, print how that one check will be run:
its command, log format, output file, timeout and effective ignore globs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadProjectConfig()
		if err != nil {
			return err
		}

		if name, _ := cmd.Flags().GetString("check"); name != "" {
			return writeResolvedCheck(cmd.OutOrStdout(), cfg.Project, name)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("encode project config: %w", err)
		}
		cmd.Print(string(data))
		return nil
	},
}

// formatsInUse lists the distinct log formats of the configured checks.
func formatsInUse(p config.Project) []string {
	seen := make(map[string]bool, len(p.Checks))
	var formats []string
	for _, c := range p.Checks {
		if !seen[c.Format] {
			seen[c.Format] = true
			formats = append(formats, c.Format)
		}
	}
	sort.Strings(formats)
	return formats
}

func writeResolvedCheck(w io.Writer, p config.Project, name string) error {
	root, err := filepath.Abs(firstNonEmpty(p.RepoPath, env.LocalRepoPath, "."))
	if err != nil {
		return fmt.Errorf("resolve repository path: %w", err)
	}
	resolved, err := p.RunnerChecks([]string{name}, root)
	if err != nil {
		return err
	}
	c := resolved[0]

	ignored := "-"
	if len(c.Options.IgnoredGlobs) > 0 {
		ignored = strings.Join(c.Options.IgnoredGlobs, " ")
	}
	table := newTable(w, []string{"Setting", "Value"})
	for _, row := range [][]string{
		{"check run", c.Name},
		{"command", firstNonEmpty(c.Command, "-")},
		{"log format", c.Format},
		{"output", c.OutputFile},
		{"timeout", c.Timeout.String()},
		{"repo root", c.Options.RepoRoot},
		{"ignored globs", ignored},
		{"verdict only", fmt.Sprint(c.Options.IgnoreVerdictOnly)},
	} {
		_ = table.Append(row)
	}
	return table.Render()
}

func loadProjectConfig() (*config.ProjectConfig, error) {
	if projectConfigPath != "" {
		return config.Load(projectConfigPath)
	}
	return config.LoadDefault()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectConfigPath, "config", "c", "", "check definitions file (default .github-checks.yaml)")
	configShowCmd.Flags().String("check", "", "show how one configured check will be run")
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
}
