package checks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
)

// Result holds the outcome of running and parsing one configured check.
type Result struct {
	CheckName  string     `json:"check_name"`
	Format     string     `json:"format"`
	ExitCode   int        `json:"exit_code"`
	DurationMs int        `json:"duration_ms"`
	OutputFile string     `json:"output_file"`
	Conclusion Conclusion `json:"conclusion"`
	Output     *Output    `json:"output"`
}

// CheckConfig mirrors config.Check with the fields the runner needs.
type CheckConfig struct {
	Name string
	// Command is run through sh -c. Empty means OutputFile already exists.
	Command    string
	Format     string
	OutputFile string
	Timeout    time.Duration
	Options    Options
}

// CommandRunner abstracts command execution for testability.
type CommandRunner interface {
	Run(ctx context.Context, dir string, command string) (stdout string, stderr string, exitCode int, err error)
}

// ExecRunner implements CommandRunner by shelling out.
type ExecRunner struct{}

func (e *ExecRunner) Run(ctx context.Context, dir string, command string) (string, string, int, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = dir

	var stdoutBuf, stderrBuf strings.Builder
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return stdoutBuf.String(), stderrBuf.String(), -1, fmt.Errorf("exec: %w", err)
		}
		exitCode = exitErr.ExitCode()
	}
	return stdoutBuf.String(), stderrBuf.String(), exitCode, nil
}

// Runner executes tool commands and parses their output.
type Runner struct {
	cmd      CommandRunner
	registry *Registry
}

// NewRunner creates a Runner. A nil registry means DefaultRegistry.
func NewRunner(cmd CommandRunner, registry *Registry) *Runner {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Runner{cmd: cmd, registry: registry}
}

// Run executes a single check in dir, captures its stdout into the check's
// output file and parses that file. Tools signal findings through non-zero
// exit codes, so the exit code alone never fails the run.
func (r *Runner) Run(ctx context.Context, dir string, cfg CheckConfig) (*Result, error) {
	parser, err := r.registry.Lookup(cfg.Format)
	if err != nil {
		return nil, fmt.Errorf("check %q: %w", cfg.Name, err)
	}

	outputFile := cfg.OutputFile
	if outputFile == "" {
		outputFile = filepath.Join(os.TempDir(), "github-checks-"+cfg.Name+".out")
	} else if !filepath.IsAbs(outputFile) {
		outputFile = filepath.Join(dir, outputFile)
	}

	result := &Result{CheckName: cfg.Name, Format: cfg.Format, OutputFile: outputFile}
	if cfg.Command != "" {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Minute
		}
		runCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		start := time.Now()
		stdout, stderr, exitCode, err := r.cmd.Run(runCtx, dir, cfg.Command)
		result.DurationMs = int(time.Since(start).Milliseconds())
		if err != nil {
			if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("check %q: timeout after %s", cfg.Name, timeout)
			}
			return nil, fmt.Errorf("run check %q: %w", cfg.Name, err)
		}
		result.ExitCode = exitCode
		if stderr != "" {
			clog.FromContext(ctx).Debugf("check %s stderr: %s", cfg.Name, stderr)
		}
		if err := os.MkdirAll(filepath.Dir(outputFile), 0o755); err != nil {
			return nil, fmt.Errorf("create output dir of check %q: %w", cfg.Name, err)
		}
		if err := os.WriteFile(outputFile, []byte(stdout), 0o644); err != nil {
			return nil, fmt.Errorf("write output of check %q: %w", cfg.Name, err)
		}
	}

	opts := cfg.Options
	if opts.RepoRoot == "" {
		opts.RepoRoot = dir
	}
	out, conclusion, err := parser.Parse(ctx, outputFile, opts)
	if err != nil {
		return nil, fmt.Errorf("check %q: %w", cfg.Name, err)
	}
	result.Output = out
	result.Conclusion = conclusion
	return result, nil
}
