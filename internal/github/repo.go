package github

import (
	"fmt"
	"net/url"
	"strings"
)

const publicAPIBaseURL = "https://api.github.com/"

// RepoRef identifies a repository and the REST API that serves it.
type RepoRef struct {
	// APIBaseURL always ends in a slash.
	APIBaseURL string
	Owner      string
	Repo       string
}

// ParseRepoURL parses a repository web URL such as
// https://github.com/octo/hello or https://ghe.example.com/octo/hello.git.
// github.com maps to api.github.com; any other host is treated as
// GitHub Enterprise Server and served from /api/v3/.
func ParseRepoURL(raw string) (RepoRef, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return RepoRef{}, fmt.Errorf("parse repo url: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return RepoRef{}, fmt.Errorf("repo url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return RepoRef{}, fmt.Errorf("repo url %q: missing host", raw)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return RepoRef{}, fmt.Errorf("repo url %q: expected <host>/<owner>/<repo>", raw)
	}
	repo := strings.TrimSuffix(parts[1], ".git")
	if repo == "" {
		return RepoRef{}, fmt.Errorf("repo url %q: empty repository name", raw)
	}

	ref := RepoRef{Owner: parts[0], Repo: repo}
	switch strings.ToLower(u.Host) {
	case "github.com", "www.github.com":
		ref.APIBaseURL = publicAPIBaseURL
	default:
		ref.APIBaseURL = fmt.Sprintf("%s://%s/api/v3/", u.Scheme, u.Host)
	}
	return ref, nil
}

// FullName returns "owner/repo".
func (r RepoRef) FullName() string {
	return r.Owner + "/" + r.Repo
}
