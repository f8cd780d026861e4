package checks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// RuffParser parses `ruff check --output-format json` output.
type RuffParser struct{}

type ruffLocation struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

type ruffDiagnostic struct {
	Code        *string       `json:"code"`
	Message     string        `json:"message" validate:"required"`
	Filename    string        `json:"filename" validate:"required"`
	Location    *ruffLocation `json:"location"`
	EndLocation *ruffLocation `json:"end_location"`
	URL         *string       `json:"url"`
	Fix         *struct {
		Message       *string `json:"message"`
		Applicability string  `json:"applicability"`
	} `json:"fix"`
}

func (p *RuffParser) Parse(ctx context.Context, outputPath string, opts Options) (*Output, Conclusion, error) {
	data, err := readOutput(outputPath)
	if err != nil {
		return nil, "", err
	}
	if data == nil {
		out, c := emptyOutput("Ruff")
		return out, c, nil
	}

	var diags []ruffDiagnostic
	if err := json.Unmarshal(data, &diags); err != nil {
		return nil, "", &ParseError{Format: "ruff-json", Path: outputPath, Err: err}
	}
	if diags == nil {
		return nil, "", &ParseError{Format: "ruff-json", Path: outputPath, Err: errors.New("expected a JSON array of diagnostics")}
	}
	for i := range diags {
		if err := validate.Struct(&diags[i]); err != nil {
			return nil, "", &ParseError{Format: "ruff-json", Path: outputPath, Err: fmt.Errorf("diagnostic %d: %w", i, err)}
		}
	}
	if len(diags) == 0 {
		out, c := emptyOutput("Ruff")
		return out, c, nil
	}

	tally := newRuleTally()
	annotations := make([]Annotation, 0, len(diags))
	for _, d := range diags {
		code := ""
		if d.Code != nil {
			code = *d.Code
		}

		// ruff has no severities; only syntax errors come without a code
		level := LevelWarning
		if code == "" {
			level = LevelFailure
		}
		a := Annotation{
			Level:   level,
			Title:   ruleTitle("Ruff", code),
			Message: d.Message,
		}
		if code != "" && d.URL != nil && *d.URL != "" {
			a.Message = fmt.Sprintf("%s\n\nSee documentation for rule %s (%s) for more information.", d.Message, code, *d.URL)
		}
		if d.Location != nil {
			a.StartLine = d.Location.Row
			a.StartColumn = d.Location.Column
		}
		if d.EndLocation != nil {
			a.EndLine = d.EndLocation.Row
			a.EndColumn = d.EndLocation.Column
		}
		if d.Fix != nil && d.Fix.Message != nil {
			a.RawDetails = fmt.Sprintf("Suggested fix (%s): %s", d.Fix.Applicability, *d.Fix.Message)
		}
		if a, ok := locate(ctx, a, d.Filename, opts); ok {
			tally.add(code)
			annotations = append(annotations, a)
		}
	}

	v := applyIgnores(annotations, opts)
	summary := niceWork
	if len(annotations) > 0 {
		summary = "Rules triggered:\n" + tally.markdown()
	}
	return &Output{
		Title:       checkTitle("Ruff", len(annotations), v),
		Summary:     summary,
		Annotations: v.display,
	}, v.conclusion, nil
}
