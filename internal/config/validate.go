package config

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/lucasnoah/github-checks/internal/checks"
	"github.com/lucasnoah/github-checks/internal/github"
)

// ValidationError represents a single validation issue with a config.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a ProjectConfig for structural and semantic errors.
// It returns a slice of all validation errors found (empty if valid).
func Validate(cfg *ProjectConfig) []ValidationError {
	var errs []ValidationError
	p := cfg.Project
	formats := checks.DefaultRegistry().Formats()

	if p.Repo != "" {
		if _, err := github.ParseRepoURL(p.Repo); err != nil {
			errs = append(errs, ValidationError{Field: "project.repo", Message: err.Error()})
		}
	}
	if len(p.Checks) == 0 {
		errs = append(errs, ValidationError{Field: "project.checks", Message: "at least one check is required"})
	}
	if _, err := time.ParseDuration(p.Defaults.Timeout); p.Defaults.Timeout != "" && err != nil {
		errs = append(errs, ValidationError{Field: "project.defaults.timeout", Message: fmt.Sprintf("invalid duration %q", p.Defaults.Timeout)})
	}

	for _, checkName := range p.DefaultChecks {
		if _, ok := p.Checks[checkName]; !ok {
			errs = append(errs, ValidationError{
				Field:   "project.default_checks",
				Message: fmt.Sprintf("references undefined check %q", checkName),
			})
		}
	}

	// sorted for stable output
	keys := make([]string, 0, len(p.Checks))
	for k := range p.Checks {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	names := make(map[string]string)
	for _, key := range keys {
		c := p.Checks[key]
		prefix := "project.checks." + key

		if c.Format == "" {
			errs = append(errs, ValidationError{Field: prefix + ".format", Message: "is required"})
		} else if !slices.Contains(formats, c.Format) {
			errs = append(errs, ValidationError{
				Field:   prefix + ".format",
				Message: fmt.Sprintf("unrecognized format %q (known: %v)", c.Format, formats),
			})
		}
		if c.Command == "" && c.Output == "" {
			errs = append(errs, ValidationError{Field: prefix, Message: "needs a command or an output file"})
		}
		if c.Timeout != "" {
			if d, err := time.ParseDuration(c.Timeout); err != nil || d <= 0 {
				errs = append(errs, ValidationError{Field: prefix + ".timeout", Message: fmt.Sprintf("invalid duration %q", c.Timeout)})
			}
		}
		if c.Name != "" {
			if other, dup := names[c.Name]; dup {
				errs = append(errs, ValidationError{
					Field:   prefix + ".name",
					Message: fmt.Sprintf("check run name %q already used by %q", c.Name, other),
				})
			}
			names[c.Name] = key
		}
	}

	if p.Ignore.ExceptIncluded && len(p.Ignore.Included) == 0 {
		errs = append(errs, ValidationError{Field: "project.ignore.except_included", Message: "requires at least one included glob"})
	}

	return errs
}
