package checks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// PyrightParser parses `pyright --outputjson` output.
type PyrightParser struct{}

// pyrightShimPrefix starts a non-JSON line the node shim sometimes prints
// before the report, e.g. {'x86': False, 'risc': False, 'lts': False}.
const pyrightShimPrefix = "{'x86'"

type pyrightPosition struct {
	Line      int `json:"line"`      // 0-based
	Character int `json:"character"` // 0-based
}

type pyrightRange struct {
	Start pyrightPosition `json:"start"`
	End   pyrightPosition `json:"end"`
}

type pyrightDiagnostic struct {
	File     string        `json:"file"`
	Severity string        `json:"severity"`
	Message  string        `json:"message"`
	Rule     string        `json:"rule"`
	Range    *pyrightRange `json:"range"`
}

type pyrightSummary struct {
	FilesAnalyzed    int     `json:"filesAnalyzed"`
	ErrorCount       int     `json:"errorCount"`
	WarningCount     int     `json:"warningCount"`
	InformationCount int     `json:"informationCount"`
	TimeInSec        float64 `json:"timeInSec"`
}

type pyrightReport struct {
	Version            string              `json:"version"`
	Time               string              `json:"time"`
	GeneralDiagnostics []pyrightDiagnostic `json:"generalDiagnostics"`
	Summary            *pyrightSummary     `json:"summary"`
}

var pyrightSeverities = map[string]AnnotationLevel{
	"error":       LevelFailure,
	"warning":     LevelWarning,
	"information": LevelNotice,
}

// stripShimLine drops exactly one leading shim line if present.
func stripShimLine(data []byte) []byte {
	if !bytes.HasPrefix(data, []byte(pyrightShimPrefix)) {
		return data
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return data[i+1:]
	}
	return nil
}

func (p *PyrightParser) Parse(ctx context.Context, outputPath string, opts Options) (*Output, Conclusion, error) {
	data, err := readOutput(outputPath)
	if err != nil {
		return nil, "", err
	}
	if data != nil {
		data = stripShimLine(data)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		out, c := emptyOutput("Pyright")
		return out, c, nil
	}

	var report pyrightReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, "", &ParseError{Format: "pyright-json", Path: outputPath, Err: err}
	}
	if report.Summary == nil {
		return nil, "", &ParseError{Format: "pyright-json", Path: outputPath, Err: errors.New("missing summary block")}
	}

	tally := newRuleTally()
	annotations := make([]Annotation, 0, len(report.GeneralDiagnostics))
	for _, d := range report.GeneralDiagnostics {
		level, ok := pyrightSeverities[d.Severity]
		if !ok {
			level = LevelNotice
		}
		a := Annotation{
			Level:   level,
			Title:   ruleTitle("Pyright", d.Rule),
			Message: d.Message,
		}
		if d.Range != nil {
			a.StartLine = d.Range.Start.Line + 1
			a.EndLine = d.Range.End.Line + 1
			a.StartColumn = d.Range.Start.Character + 1
			a.EndColumn = d.Range.End.Character + 1
		}
		if a, ok := locate(ctx, a, d.File, opts); ok {
			tally.add(d.Rule)
			annotations = append(annotations, a)
		}
	}

	s := report.Summary
	numIssues := s.ErrorCount + s.WarningCount + s.InformationCount
	if n := len(report.GeneralDiagnostics); n > numIssues {
		numIssues = n
	}
	// diagnostics outside the repository are not counted
	numIssues -= len(report.GeneralDiagnostics) - len(annotations)
	v := applyIgnores(annotations, opts)

	summary := niceWork
	if numIssues > 0 {
		summary = fmt.Sprintf("%d Errors, %d Warnings, %d Informational\nRules triggered:\n%s",
			s.ErrorCount, s.WarningCount, s.InformationCount, tally.markdown())
	}
	return &Output{
		Title:       checkTitle("Pyright", numIssues, v),
		Summary:     summary,
		Annotations: v.display,
	}, v.conclusion, nil
}
