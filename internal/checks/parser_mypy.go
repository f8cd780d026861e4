package checks

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// MypyParser parses `mypy -O json` output: one JSON object per line.
type MypyParser struct{}

type mypyDiagnostic struct {
	File     string  `json:"file" validate:"required"`
	Line     *int    `json:"line" validate:"required"`
	Column   int     `json:"column"` // 0-based
	Message  string  `json:"message" validate:"required"`
	Hint     *string `json:"hint"`
	Code     *string `json:"code"`
	Severity string  `json:"severity"`
}

var mypySeverities = map[string]AnnotationLevel{
	"error": LevelWarning,
	"note":  LevelNotice,
}

func (p *MypyParser) Parse(ctx context.Context, outputPath string, opts Options) (*Output, Conclusion, error) {
	data, err := readOutput(outputPath)
	if err != nil {
		return nil, "", err
	}
	if data == nil {
		out, c := emptyOutput("Mypy")
		return out, c, nil
	}

	var diags []mypyDiagnostic
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var d mypyDiagnostic
		if err := json.Unmarshal([]byte(line), &d); err != nil {
			return nil, "", &ParseError{Format: "mypy-json", Path: outputPath, Err: fmt.Errorf("line %d: %w", lineNum, err)}
		}
		if err := validate.Struct(&d); err != nil {
			return nil, "", &ParseError{Format: "mypy-json", Path: outputPath, Err: fmt.Errorf("line %d: %w", lineNum, err)}
		}
		diags = append(diags, d)
	}
	if err := scanner.Err(); err != nil {
		return nil, "", &ParseError{Format: "mypy-json", Path: outputPath, Err: err}
	}

	tally := newRuleTally()
	annotations := make([]Annotation, 0, len(diags))
	for _, d := range diags {
		code := ""
		if d.Code != nil {
			code = *d.Code
		}

		level, ok := mypySeverities[d.Severity]
		if !ok {
			level = LevelNotice
		}
		a := Annotation{
			StartLine: *d.Line,
			EndLine:   *d.Line,
			Level:     level,
			Title:     ruleTitle("Mypy", code),
			Message:   d.Message,
		}
		if d.Column >= 0 {
			a.StartColumn = d.Column + 1
			a.EndColumn = d.Column + 1
		}
		if d.Hint != nil {
			a.RawDetails = *d.Hint
		}
		if a, ok := locate(ctx, a, d.File, opts); ok {
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
		Title:       checkTitle("Mypy", len(annotations), v),
		Summary:     summary,
		Annotations: v.display,
	}, v.conclusion, nil
}
