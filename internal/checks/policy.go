package checks

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// GetConclusion returns ActionRequired if any annotation is a warning or a
// failure. Notices never fail a run.
func GetConclusion(annotations []Annotation) Conclusion {
	for _, a := range annotations {
		if a.Level == LevelWarning || a.Level == LevelFailure {
			return ConclusionActionRequired
		}
	}
	return ConclusionSuccess
}

// PathResolutionError reports a tool path that does not live under the repo root.
type PathResolutionError struct {
	Path string
	Root string
}

func (e *PathResolutionError) Error() string {
	return fmt.Sprintf("path %q is not under repository root %q", e.Path, e.Root)
}

// ResolvePath converts a tool-reported path into a slash-separated path
// relative to repoRoot. Relative tool paths are taken relative to repoRoot.
func ResolvePath(toolPath, repoRoot string) (string, error) {
	if toolPath == "" {
		return "", &PathResolutionError{Path: toolPath, Root: repoRoot}
	}
	root, err := filepath.Abs(repoRoot)
	if err != nil {
		return "", fmt.Errorf("resolve repository root: %w", err)
	}
	p := filepath.FromSlash(toolPath)
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	rel, err := filepath.Rel(root, filepath.Clean(p))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &PathResolutionError{Path: toolPath, Root: repoRoot}
	}
	return filepath.ToSlash(rel), nil
}

// pathFromURI extracts a filesystem path from a file:// or scheme-less URI.
func pathFromURI(uri string) (string, bool) {
	if uri == "" {
		return "", false
	}
	u, err := url.Parse(uri)
	if err != nil {
		return uri, true
	}
	switch u.Scheme {
	case "":
		if u.Path == "" {
			return "", false
		}
		return u.Path, true
	case "file":
		if u.Path == "" {
			return "", false
		}
		return u.Path, true
	}
	return "", false
}

// IgnoreSet matches repo-relative paths against gitignore-style patterns.
// Later patterns override earlier ones and "!pattern" re-includes.
type IgnoreSet struct {
	matcher gitignore.Matcher
}

// NewIgnoreSet compiles globs. It returns nil when globs is empty, and a nil
// set ignores nothing.
//
// A list whose first pattern is a negation ("ignore everything except ...")
// is evaluated as if preceded by "*", otherwise it could never exclude anything.
func NewIgnoreSet(globs []string) *IgnoreSet {
	var patterns []gitignore.Pattern
	for _, g := range globs {
		g = strings.TrimSpace(g)
		if g == "" || strings.HasPrefix(g, "#") {
			continue
		}
		if len(patterns) == 0 && strings.HasPrefix(g, "!") {
			patterns = append(patterns, gitignore.ParsePattern("*", nil))
		}
		patterns = append(patterns, gitignore.ParsePattern(g, nil))
	}
	if len(patterns) == 0 {
		return nil
	}
	return &IgnoreSet{matcher: gitignore.NewMatcher(patterns)}
}

// Ignored reports whether the repo-relative path is excluded.
func (s *IgnoreSet) Ignored(path string) bool {
	if s == nil {
		return false
	}
	parts := strings.Split(strings.Trim(filepath.ToSlash(path), "/"), "/")
	return s.matcher.Match(parts, false)
}

// Filter drops every annotation whose path is ignored. A nil set returns the
// input slice itself.
func (s *IgnoreSet) Filter(annotations []Annotation) []Annotation {
	if s == nil {
		return annotations
	}
	kept := make([]Annotation, 0, len(annotations))
	for _, a := range annotations {
		if !s.Ignored(a.Path) {
			kept = append(kept, a)
		}
	}
	return kept
}

// FilterByIgnore removes annotations matching ignoredGlobs. Paths are already
// repo-relative, so no root is needed here.
func FilterByIgnore(annotations []Annotation, ignoredGlobs []string) []Annotation {
	return NewIgnoreSet(ignoredGlobs).Filter(annotations)
}

// verdict is the outcome of applying ignore policy to a parsed annotation set.
type verdict struct {
	display    []Annotation
	conclusion Conclusion
	// unfiltered is the conclusion before ignores were applied.
	unfiltered Conclusion
}

// applyIgnores computes the conclusion from the filtered set and decides
// which set is displayed.
func applyIgnores(annotations []Annotation, opts Options) verdict {
	v := verdict{
		display:    annotations,
		unfiltered: GetConclusion(annotations),
	}
	v.conclusion = v.unfiltered
	if len(opts.IgnoredGlobs) == 0 {
		return v
	}
	filtered := FilterByIgnore(annotations, opts.IgnoredGlobs)
	v.conclusion = GetConclusion(filtered)
	if !opts.IgnoreVerdictOnly {
		v.display = filtered
	}
	return v
}

// ComputeIgnoredGlobs merges ignore and include globs into one effective
// ignore list. Included globs become negations; with ignoreExceptIncluded the
// explicit ignores are dropped in favour of "ignore everything but included".
// It returns nil when there is nothing to ignore.
func ComputeIgnoredGlobs(ignored, included []string, ignoreExceptIncluded bool) []string {
	if len(included) == 0 {
		if len(ignored) == 0 {
			return nil
		}
		return ignored
	}
	negated := make([]string, 0, len(included))
	for _, g := range included {
		negated = append(negated, "!"+g)
	}
	if ignoreExceptIncluded {
		return negated
	}
	out := make([]string, 0, len(ignored)+len(negated))
	out = append(out, ignored...)
	return append(out, negated...)
}
