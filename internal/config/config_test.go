package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sethvargo/go-envconfig"
)

const validConfig = `
project:
  name: hello
  repo: https://github.com/octo/hello
  defaults:
    timeout: "2m"
  default_checks:
    - mypy
    - ruff
  ignore:
    globs: ["*.pyc", "build/"]
    included: ["src/*.py"]
    verdict_only: true
  checks:
    mypy:
      command: "mypy -O json src"
      format: mypy-json
      output: out/mypy.jsonl
    ruff:
      name: "ruff lint"
      command: "ruff check --output-format json"
      format: ruff-json
      timeout: "30s"
      ignored_globs: ["migrations/"]
    schema:
      command: "check-jsonschema --output-format json --schemafile s.json cfg.yaml"
      format: check-jsonschema
`

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, ".github-checks.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeTestConfig(t, validConfig)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	p := cfg.Project
	if p.Name != "hello" {
		t.Errorf("Name = %q, want %q", p.Name, "hello")
	}
	if len(p.Checks) != 3 {
		t.Fatalf("len(Checks) = %d, want 3", len(p.Checks))
	}
	if p.Checks["mypy"].Format != "mypy-json" {
		t.Errorf("mypy format = %q, want mypy-json", p.Checks["mypy"].Format)
	}
	if !p.Ignore.VerdictOnly {
		t.Error("expected ignore.verdict_only = true")
	}
}

func TestDefaultsMerge(t *testing.T) {
	path := writeTestConfig(t, validConfig)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	p := cfg.Project

	mypy := p.Checks["mypy"]
	if mypy.Name != "mypy" {
		t.Errorf("mypy name = %q, want key as name", mypy.Name)
	}
	if mypy.Timeout != "2m" {
		t.Errorf("mypy timeout = %q, want project default 2m", mypy.Timeout)
	}
	if mypy.Output != "out/mypy.jsonl" {
		t.Errorf("mypy output = %q, want explicit value kept", mypy.Output)
	}

	ruff := p.Checks["ruff"]
	if ruff.Name != "ruff lint" || ruff.Timeout != "30s" {
		t.Errorf("ruff overrides lost: %+v", ruff)
	}

	schema := p.Checks["schema"]
	if schema.Output != filepath.Join(".github-checks", "schema.out") {
		t.Errorf("schema output = %q, want default output dir", schema.Output)
	}
}

func TestDefaultChecksFallback(t *testing.T) {
	path := writeTestConfig(t, `
project:
  checks:
    b: {format: raw, command: "make b"}
    a: {format: raw, command: "make a"}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, cfg.Project.DefaultChecks); diff != "" {
		t.Errorf("default checks mismatch (-want +got):\n%s", diff)
	}
	if cfg.Project.Defaults.Timeout != "5m" {
		t.Errorf("default timeout = %q, want 5m", cfg.Project.Defaults.Timeout)
	}
}

func TestRunnerChecks(t *testing.T) {
	path := writeTestConfig(t, validConfig)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	got, err := cfg.Project.RunnerChecks(nil, "/repo")
	if err != nil {
		t.Fatalf("RunnerChecks() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected the 2 default checks, got %d", len(got))
	}

	ruff := got[1]
	if ruff.Name != "ruff lint" || ruff.Format != "ruff-json" || ruff.Timeout != 30*time.Second {
		t.Errorf("unexpected ruff config %+v", ruff)
	}
	wantGlobs := []string{"*.pyc", "build/", "migrations/", "!src/*.py"}
	if diff := cmp.Diff(wantGlobs, ruff.Options.IgnoredGlobs); diff != "" {
		t.Errorf("ignored globs mismatch (-want +got):\n%s", diff)
	}
	if ruff.Options.RepoRoot != "/repo" || !ruff.Options.IgnoreVerdictOnly {
		t.Errorf("unexpected options %+v", ruff.Options)
	}

	if _, err := cfg.Project.RunnerChecks([]string{"nope"}, "/repo"); err == nil {
		t.Error("expected error for undefined check")
	}
}

func TestEffectiveIgnoredGlobs_ExceptIncluded(t *testing.T) {
	p := &Project{Ignore: IgnorePolicy{Globs: []string{"*.log"}, Included: []string{"src/"}, ExceptIncluded: true}}
	if diff := cmp.Diff([]string{"!src/"}, p.EffectiveIgnoredGlobs(Check{})); diff != "" {
		t.Errorf("globs mismatch (-want +got):\n%s", diff)
	}

	empty := &Project{}
	if got := empty.EffectiveIgnoredGlobs(Check{}); got != nil {
		t.Errorf("expected nil globs, got %v", got)
	}
}

func TestValidateValidConfig(t *testing.T) {
	path := writeTestConfig(t, validConfig)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if errs := Validate(cfg); len(errs) != 0 {
		t.Errorf("expected no validation errors, got %v", errs)
	}
}

func hasFieldError(errs []ValidationError, field, fragment string) bool {
	for _, e := range errs {
		if e.Field == field && strings.Contains(e.Message, fragment) {
			return true
		}
	}
	return false
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		field    string
		fragment string
	}{
		{
			name:     "no checks",
			yaml:     "project:\n  name: x\n",
			field:    "project.checks",
			fragment: "at least one check",
		},
		{
			name:     "bad repo url",
			yaml:     "project:\n  repo: github.com/octo\n  checks:\n    a: {format: raw, command: x}\n",
			field:    "project.repo",
			fragment: "scheme",
		},
		{
			name:     "unknown format",
			yaml:     "project:\n  checks:\n    lint: {format: eslint, command: x}\n",
			field:    "project.checks.lint.format",
			fragment: "unrecognized format",
		},
		{
			name:     "missing format",
			yaml:     "project:\n  checks:\n    lint: {command: x}\n",
			field:    "project.checks.lint.format",
			fragment: "is required",
		},
		{
			name:     "bad timeout",
			yaml:     "project:\n  checks:\n    lint: {format: raw, command: x, timeout: soon}\n",
			field:    "project.checks.lint.timeout",
			fragment: "invalid duration",
		},
		{
			name:     "undefined default check",
			yaml:     "project:\n  default_checks: [ghost]\n  checks:\n    lint: {format: raw, command: x}\n",
			field:    "project.default_checks",
			fragment: "ghost",
		},
		{
			name:     "duplicate run names",
			yaml:     "project:\n  checks:\n    a: {name: lint, format: raw, command: x}\n    b: {name: lint, format: raw, command: y}\n",
			field:    "project.checks.b.name",
			fragment: "already used",
		},
		{
			name:     "except included without included",
			yaml:     "project:\n  ignore: {except_included: true}\n  checks:\n    a: {format: raw, command: x}\n",
			field:    "project.ignore.except_included",
			fragment: "included glob",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeTestConfig(t, tt.yaml))
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			errs := Validate(cfg)
			if !hasFieldError(errs, tt.field, tt.fragment) {
				t.Errorf("expected error on %s containing %q, got %v", tt.field, tt.fragment, errs)
			}
		})
	}
}

func TestValidationErrorString(t *testing.T) {
	e := ValidationError{Field: "project.checks", Message: "is required"}
	if e.Error() != "project.checks: is required" {
		t.Errorf("unexpected error string %q", e.Error())
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeTestConfig(t, "not: [valid: yaml: !!!")
	_, err := Load(path)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadNonexistentFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadDefaultNotFound(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)

	_, err := LoadDefault()
	if err == nil {
		t.Error("expected error when no config file found")
	}
}

func TestLoadDefaultFromCurrentDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())

	content := "project:\n  name: local\n  checks:\n    a: {format: raw, command: x}\n"
	if err := os.WriteFile(filepath.Join(dir, ".github-checks.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault() error: %v", err)
	}
	if cfg.Project.Name != "local" {
		t.Errorf("Name = %q, want %q", cfg.Project.Name, "local")
	}
}

func TestLoadEnvFrom(t *testing.T) {
	env, err := LoadEnvFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"GH_APP_ID":          "12",
		"GH_APP_INSTALL_ID":  "34",
		"GH_PRIVATE_KEY_PEM": "/keys/app.pem",
		"GH_REPO_BASE_URL":   "https://github.com/octo/hello",
		"GH_CHECK_NAME":      "mypy",
	}))
	if err != nil {
		t.Fatalf("LoadEnvFrom() error: %v", err)
	}
	want := &Env{
		AppID:         12,
		AppInstallID:  34,
		PrivateKeyPEM: "/keys/app.pem",
		RepoBaseURL:   "https://github.com/octo/hello",
		CheckName:     "mypy",
	}
	if diff := cmp.Diff(want, env); diff != "" {
		t.Errorf("env mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadEnvFrom_BadInteger(t *testing.T) {
	_, err := LoadEnvFrom(context.Background(), envconfig.MapLookuper(map[string]string{"GH_APP_ID": "twelve"}))
	if err == nil {
		t.Error("expected error for non-numeric app id")
	}
}

func TestLoadEnv_DotenvFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "GH_CHECK_NAME=from-file\nGH_CHECK_REVISION=abc123\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GH_CHECK_NAME", "from-env")
	t.Setenv("GH_CHECK_REVISION", "")
	os.Unsetenv("GH_CHECK_REVISION")

	env, err := LoadEnv(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadEnv() error: %v", err)
	}
	if env.CheckName != "from-env" {
		t.Errorf("CheckName = %q, want environment to win", env.CheckName)
	}
	if env.CheckRevision != "abc123" {
		t.Errorf("CheckRevision = %q, want value from dotenv file", env.CheckRevision)
	}

	if _, err := LoadEnv(context.Background(), filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing dotenv file should be ignored, got %v", err)
	}
}
