package checks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/chainguard-dev/clog"
	"github.com/go-playground/validator/v10"
)

// validate checks decoded tool records carry their required fields.
var validate = validator.New()

// Parser converts one tool's output file into a normalized Output and verdict.
type Parser interface {
	Parse(ctx context.Context, outputPath string, opts Options) (*Output, Conclusion, error)
}

// ErrUnknownFormat is returned by Registry.Lookup for unregistered formats.
var ErrUnknownFormat = errors.New("unknown log format")

// ParseError reports tool output that could not be decoded. It is fatal for
// the invocation.
type ParseError struct {
	Format string
	Path   string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s output %s: %v", e.Format, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Registry maps format identifiers to parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// DefaultRegistry returns a registry with every built-in format.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("mypy-json", &MypyParser{})
	r.Register("pyright-json", &PyrightParser{})
	r.Register("ruff-json", &RuffParser{})
	r.Register("sarif", &SARIFParser{})
	r.Register("check-jsonschema", &JSONSchemaParser{})
	r.Register("raw", &RawParser{})
	return r
}

// Register adds or replaces the parser for format.
func (r *Registry) Register(format string, p Parser) {
	r.parsers[format] = p
}

// Lookup returns the parser registered for format.
func (r *Registry) Lookup(format string) (Parser, error) {
	p, ok := r.parsers[format]
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %v)", ErrUnknownFormat, format, r.Formats())
	}
	return p, nil
}

// Formats lists registered format identifiers in sorted order.
func (r *Registry) Formats() []string {
	names := make([]string, 0, len(r.parsers))
	for name := range r.parsers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// readOutput reads the whole output file. A missing file and a blank file
// both yield nil content and no error: both mean zero findings.
func readOutput(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read tool output: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	return data, nil
}

// locate resolves an annotation's tool path against the repo root and
// normalizes its positions. Unresolvable paths are skipped, not fatal.
func locate(ctx context.Context, a Annotation, toolPath string, opts Options) (Annotation, bool) {
	rel, err := ResolvePath(toolPath, opts.RepoRoot)
	if err != nil {
		clog.FromContext(ctx).Debugf("skipping finding: %v", err)
		return Annotation{}, false
	}
	a.Path = rel
	a.normalize()
	return a, true
}
