package github

import (
	"context"
	"errors"
	"testing"
)

type mockGitRunner struct {
	calls  [][]string
	dirs   []string
	output string
	err    error
}

func (m *mockGitRunner) RunGit(ctx context.Context, dir string, args ...string) (string, error) {
	m.calls = append(m.calls, args)
	m.dirs = append(m.dirs, dir)
	return m.output, m.err
}

func TestHeadRevision(t *testing.T) {
	sha := "0123456789abcdef0123456789abcdef01234567"
	git := &mockGitRunner{output: sha + "\n"}

	got, err := HeadRevision(context.Background(), git, "/repo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != sha {
		t.Errorf("expected %s, got %s", sha, got)
	}
	if len(git.calls) != 1 || git.calls[0][0] != "rev-parse" || git.dirs[0] != "/repo" {
		t.Errorf("unexpected git calls %v in %v", git.calls, git.dirs)
	}
}

func TestHeadRevision_Errors(t *testing.T) {
	if _, err := HeadRevision(context.Background(), &mockGitRunner{err: errors.New("not a git repository")}, "."); err == nil {
		t.Error("expected error when git fails")
	}
	if _, err := HeadRevision(context.Background(), &mockGitRunner{output: "HEAD"}, "."); err == nil {
		t.Error("expected error for non-sha output")
	}
}
