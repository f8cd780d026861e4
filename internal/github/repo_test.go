package github

import "testing"

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		raw  string
		want RepoRef
	}{
		{"https://github.com/octo/hello", RepoRef{APIBaseURL: "https://api.github.com/", Owner: "octo", Repo: "hello"}},
		{"https://github.com/octo/hello/", RepoRef{APIBaseURL: "https://api.github.com/", Owner: "octo", Repo: "hello"}},
		{"https://github.com/octo/hello.git", RepoRef{APIBaseURL: "https://api.github.com/", Owner: "octo", Repo: "hello"}},
		{"https://ghe.example.com/team/tool", RepoRef{APIBaseURL: "https://ghe.example.com/api/v3/", Owner: "team", Repo: "tool"}},
		{"http://localhost:8080/a/b", RepoRef{APIBaseURL: "http://localhost:8080/api/v3/", Owner: "a", Repo: "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseRepoURL(tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestParseRepoURL_Invalid(t *testing.T) {
	for _, raw := range []string{
		"",
		"github.com/octo/hello",
		"ssh://github.com/octo/hello",
		"https://github.com/octo",
		"https://github.com/octo/hello/tree/main",
		"https:///octo/hello",
	} {
		if _, err := ParseRepoURL(raw); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}

func TestRepoRef_FullName(t *testing.T) {
	ref := RepoRef{Owner: "octo", Repo: "hello"}
	if got := ref.FullName(); got != "octo/hello" {
		t.Errorf("expected octo/hello, got %q", got)
	}
}
