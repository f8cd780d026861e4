package checks

import (
	"bytes"
	"context"
	"unicode/utf8"
)

// RawParser turns arbitrary tool output into an annotation-less summary.
type RawParser struct{}

// maxRawSummaryLen caps the summary well below GitHub's ~65k request body
// limit, leaving room for the other fields and multi-byte characters.
const maxRawSummaryLen = 30000

const truncationMarker = "\n\n... (truncated output, see full text log for details) ..."

const rawTitle = "Raw Check Results"

// truncateRaw keeps at most limit bytes, cut on a rune boundary, and appends
// the truncation marker when anything was dropped.
func truncateRaw(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + truncationMarker
}

func (p *RawParser) Parse(ctx context.Context, outputPath string, opts Options) (*Output, Conclusion, error) {
	data, err := readOutput(outputPath)
	if err != nil {
		return nil, "", err
	}
	if data == nil {
		return &Output{Title: rawTitle, Summary: niceWork, Annotations: []Annotation{}}, ConclusionSuccess, nil
	}

	text := string(bytes.TrimSpace(data))
	return &Output{
		Title:       rawTitle,
		Summary:     truncateRaw(text, maxRawSummaryLen),
		Annotations: []Annotation{},
	}, ConclusionActionRequired, nil
}
