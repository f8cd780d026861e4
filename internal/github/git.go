package github

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// GitRunner provides git command execution. Interface for testing.
type GitRunner interface {
	RunGit(ctx context.Context, dir string, args ...string) (string, error)
}

// ExecGit runs git via exec.
type ExecGit struct{}

// RunGit implements GitRunner using exec.CommandContext.
func (ExecGit) RunGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return strings.TrimSpace(string(out)), fmt.Errorf("git %s: %s: %w", strings.Join(args, " "), strings.TrimSpace(string(out)), err)
	}
	return strings.TrimSpace(string(out)), nil
}

var shaPattern = regexp.MustCompile(`^[0-9a-f]{40}([0-9a-f]{24})?$`)

// HeadRevision returns the commit checked out in dir, used when no revision
// was given explicitly.
func HeadRevision(ctx context.Context, git GitRunner, dir string) (string, error) {
	out, err := git.RunGit(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("resolve HEAD revision: %w", err)
	}
	sha := strings.ToLower(strings.TrimSpace(out))
	if !shaPattern.MatchString(sha) {
		return "", fmt.Errorf("resolve HEAD revision: unexpected output %q", out)
	}
	return sha, nil
}
