package checks

import "fmt"

// AnnotationLevel is the severity GitHub checks accepts for a single annotation.
type AnnotationLevel string

const (
	LevelNotice  AnnotationLevel = "notice"
	LevelWarning AnnotationLevel = "warning"
	LevelFailure AnnotationLevel = "failure"
)

// Conclusion is the verdict attached to a finished check run.
type Conclusion string

const (
	ConclusionSuccess        Conclusion = "success"
	ConclusionActionRequired Conclusion = "action_required"
	// ConclusionCancelled is only set out of band, parsers never produce it.
	ConclusionCancelled Conclusion = "cancelled"
)

// ParseConclusion converts a user-supplied string into a Conclusion.
func ParseConclusion(s string) (Conclusion, error) {
	switch c := Conclusion(s); c {
	case ConclusionSuccess, ConclusionActionRequired, ConclusionCancelled:
		return c, nil
	}
	return "", fmt.Errorf("invalid conclusion %q (want success, action_required or cancelled)", s)
}

// Annotation is a single finding tied to a repo-relative file location.
// Zero positions mean "unset".
type Annotation struct {
	Path        string          `json:"path"`
	StartLine   int             `json:"start_line,omitempty"`
	EndLine     int             `json:"end_line,omitempty"`
	StartColumn int             `json:"start_column,omitempty"`
	EndColumn   int             `json:"end_column,omitempty"`
	Level       AnnotationLevel `json:"annotation_level"`
	Title       string          `json:"title"`
	Message     string          `json:"message"`
	RawDetails  string          `json:"raw_details,omitempty"`
}

// normalize enforces the position invariants: positions are positive or unset,
// and columns only survive on single-line annotations.
func (a *Annotation) normalize() {
	if a.StartLine < 1 {
		a.StartLine = 0
	}
	if a.EndLine < 1 {
		a.EndLine = a.StartLine
	}
	if a.StartColumn < 1 {
		a.StartColumn = 0
	}
	if a.EndColumn < 1 {
		a.EndColumn = 0
	}
	if a.StartLine == 0 || a.StartLine != a.EndLine {
		a.StartColumn = 0
		a.EndColumn = 0
	}
}

// Output is the normalized result of one parse, handed to the checks session.
type Output struct {
	Title       string       `json:"title"`
	Summary     string       `json:"summary"`
	Annotations []Annotation `json:"annotations"`
}

// Options carries the caller-supplied policy for a single parse.
type Options struct {
	// RepoRoot is the local repository root used to relativize tool paths.
	RepoRoot string
	// IgnoredGlobs is the effective gitignore-style pattern list.
	IgnoredGlobs []string
	// IgnoreVerdictOnly keeps ignored annotations in the output and only
	// excludes them from the conclusion.
	IgnoreVerdictOnly bool
}

const niceWork = "Nice work!"
