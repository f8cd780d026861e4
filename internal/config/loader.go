package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lucasnoah/github-checks/internal/checks"
)

const (
	defaultTimeout   = "5m"
	defaultOutputDir = ".github-checks"
)

// Load reads and parses a project configuration from the given YAML file path.
// After parsing, it applies defaults to checks that don't specify their own values.
func Load(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault searches for a project config in standard locations and loads the
// first one found. Search order: ./.github-checks.yaml, ~/.config/github-checks/config.yaml
func LoadDefault() (*ProjectConfig, error) {
	candidates := []string{".github-checks.yaml"}

	home, err := os.UserHomeDir()
	if err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "github-checks", "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	return nil, fmt.Errorf("no project config found (searched: %v)", candidates)
}

// applyDefaults fills check names, timeouts and output files, and falls back
// to running every check when default_checks is empty.
func applyDefaults(cfg *ProjectConfig) {
	p := &cfg.Project

	if p.Defaults.Timeout == "" {
		p.Defaults.Timeout = defaultTimeout
	}
	if p.Defaults.OutputDir == "" {
		p.Defaults.OutputDir = defaultOutputDir
	}

	for key, c := range p.Checks {
		if c.Name == "" {
			c.Name = key
		}
		if c.Timeout == "" {
			c.Timeout = p.Defaults.Timeout
		}
		if c.Output == "" {
			c.Output = filepath.Join(p.Defaults.OutputDir, key+".out")
		}
		p.Checks[key] = c
	}

	if len(p.DefaultChecks) == 0 {
		for key := range p.Checks {
			p.DefaultChecks = append(p.DefaultChecks, key)
		}
		sort.Strings(p.DefaultChecks)
	}
}

// EffectiveIgnoredGlobs merges the project ignore policy with a check's own globs.
func (p *Project) EffectiveIgnoredGlobs(c Check) []string {
	ignored := append(append([]string{}, p.Ignore.Globs...), c.IgnoredGlobs...)
	return checks.ComputeIgnoredGlobs(ignored, p.Ignore.Included, p.Ignore.ExceptIncluded)
}

// RunnerChecks resolves check names into runner configurations. No names
// means the project's default checks.
func (p *Project) RunnerChecks(names []string, repoRoot string) ([]checks.CheckConfig, error) {
	if len(names) == 0 {
		names = p.DefaultChecks
	}

	out := make([]checks.CheckConfig, 0, len(names))
	for _, name := range names {
		c, ok := p.Checks[name]
		if !ok {
			return nil, fmt.Errorf("undefined check %q", name)
		}
		timeout, err := time.ParseDuration(c.Timeout)
		if err != nil {
			return nil, fmt.Errorf("check %q: invalid timeout %q: %w", name, c.Timeout, err)
		}
		out = append(out, checks.CheckConfig{
			Name:       c.Name,
			Command:    c.Command,
			Format:     c.Format,
			OutputFile: c.Output,
			Timeout:    timeout,
			Options: checks.Options{
				RepoRoot:          repoRoot,
				IgnoredGlobs:      p.EffectiveIgnoredGlobs(c),
				IgnoreVerdictOnly: p.Ignore.VerdictOnly,
			},
		})
	}
	return out, nil
}
