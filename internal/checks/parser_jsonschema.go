package checks

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// JSONSchemaParser parses `check-jsonschema --output-format json` output.
type JSONSchemaParser struct{}

type jsonSchemaError struct {
	Filename     string `json:"filename" validate:"required"`
	Path         string `json:"path"`
	Message      string `json:"message" validate:"required"`
	HasSubErrors bool   `json:"has_sub_errors"`
	BestMatch    *struct {
		Path    string `json:"path"`
		Message string `json:"message"`
	} `json:"best_match"`
}

type jsonSchemaParseError struct {
	Filename string `json:"filename" validate:"required"`
	Message  string `json:"message" validate:"required"`
}

type jsonSchemaReport struct {
	Status      string                 `json:"status"`
	Errors      []jsonSchemaError      `json:"errors" validate:"required,dive"`
	ParseErrors []jsonSchemaParseError `json:"parse_errors" validate:"omitempty,dive"`
}

const jsonSchemaTool = "JSON Schema validation"

func (p *JSONSchemaParser) Parse(ctx context.Context, outputPath string, opts Options) (*Output, Conclusion, error) {
	data, err := readOutput(outputPath)
	if err != nil {
		return nil, "", err
	}
	if data == nil {
		out, c := emptyOutput(jsonSchemaTool)
		return out, c, nil
	}

	var report jsonSchemaReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, "", &ParseError{Format: "check-jsonschema", Path: outputPath, Err: err}
	}
	if err := validate.Struct(&report); err != nil {
		return nil, "", &ParseError{Format: "check-jsonschema", Path: outputPath, Err: err}
	}
	if len(report.Errors)+len(report.ParseErrors) == 0 {
		out, c := emptyOutput(jsonSchemaTool)
		return out, c, nil
	}

	files := newRuleTally()
	annotations := make([]Annotation, 0, len(report.Errors)+len(report.ParseErrors))
	for _, e := range report.Errors {
		pos := locateInFile(documentPath(e.Filename, opts.RepoRoot), e.Path)
		a := Annotation{
			StartLine:   pos.line,
			EndLine:     pos.line,
			StartColumn: pos.startCol,
			EndColumn:   pos.endCol,
			Level:       LevelWarning,
			Title:       "Schema violation at " + e.Path,
			Message:     e.Message,
		}
		if e.HasSubErrors && e.BestMatch != nil {
			a.RawDetails = fmt.Sprintf("Best match at %s: %s", e.BestMatch.Path, e.BestMatch.Message)
		}
		if a, ok := locate(ctx, a, e.Filename, opts); ok {
			files.add(e.Filename)
			annotations = append(annotations, a)
		}
	}
	for _, e := range report.ParseErrors {
		a := Annotation{
			StartLine: 1,
			EndLine:   1,
			Level:     LevelFailure,
			Title:     "Unparseable document",
			Message:   e.Message,
		}
		if a, ok := locate(ctx, a, e.Filename, opts); ok {
			files.add(e.Filename)
			annotations = append(annotations, a)
		}
	}

	numIssues := len(annotations)
	if numIssues == 0 {
		out, c := emptyOutput(jsonSchemaTool)
		return out, c, nil
	}
	v := applyIgnores(annotations, opts)
	title := fmt.Sprintf("%s found %d issues", jsonSchemaTool, numIssues)
	if v.conclusion == ConclusionSuccess {
		title = checkTitle(jsonSchemaTool, numIssues, v)
	}
	var b strings.Builder
	b.WriteString("The schema validation found the following issues in JSON/YAML files:\n")
	b.WriteString(files.markdown())
	return &Output{
		Title:       title,
		Summary:     b.String(),
		Annotations: v.display,
	}, v.conclusion, nil
}

// documentPath resolves the validated file on disk; relative names are
// relative to the repository root.
func documentPath(filename, repoRoot string) string {
	p := filepath.FromSlash(filename)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(repoRoot, p)
}
