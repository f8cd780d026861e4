package config

// ProjectConfig is the top-level structure parsed from .github-checks.yaml.
type ProjectConfig struct {
	Project Project `yaml:"project"`
}

// Project describes the repository being checked and the tools run against it.
type Project struct {
	Name string `yaml:"name"`
	// Repo is the repository web URL, e.g. https://github.com/octo/hello.
	Repo string `yaml:"repo"`
	// RepoPath is the local checkout, defaults to ./<repo name>.
	RepoPath      string           `yaml:"repo_path"`
	Defaults      CheckDefaults    `yaml:"defaults"`
	DefaultChecks []string         `yaml:"default_checks"`
	Checks        map[string]Check `yaml:"checks"`
	Ignore        IgnorePolicy     `yaml:"ignore"`
}

// CheckDefaults holds values applied to checks that don't specify their own.
type CheckDefaults struct {
	Timeout   string `yaml:"timeout"`
	OutputDir string `yaml:"output_dir"`
}

// IgnorePolicy is the ignore/include glob configuration shared by all checks.
type IgnorePolicy struct {
	Globs          []string `yaml:"globs"`
	Included       []string `yaml:"included"`
	ExceptIncluded bool     `yaml:"except_included"`
	VerdictOnly    bool     `yaml:"verdict_only"`
}

// Check defines one tool invocation and the format of its output.
type Check struct {
	// Name is the check run name shown on GitHub, defaults to the map key.
	Name    string `yaml:"name"`
	Command string `yaml:"command"`
	Format  string `yaml:"format"`
	Output  string `yaml:"output"`
	Timeout string `yaml:"timeout"`
	// IgnoredGlobs are appended to the project-wide ignore globs.
	IgnoredGlobs []string `yaml:"ignored_globs"`
}
