package checks

import (
	"fmt"
	"strings"
)

// ruleTally counts rule occurrences, preserving first-seen order.
type ruleTally struct {
	order  []string
	counts map[string]int
}

func newRuleTally() *ruleTally {
	return &ruleTally{counts: make(map[string]int)}
}

func (t *ruleTally) add(rule string) {
	if rule == "" {
		rule = "uncategorized"
	}
	if _, ok := t.counts[rule]; !ok {
		t.order = append(t.order, rule)
	}
	t.counts[rule]++
}

// markdown renders the tally as a bullet list, one rule per line.
func (t *ruleTally) markdown() string {
	lines := make([]string, 0, len(t.order))
	for _, rule := range t.order {
		lines = append(lines, fmt.Sprintf("- `%s` (%d)", rule, t.counts[rule]))
	}
	return strings.Join(lines, "\n")
}

// ruleTitle is the per-annotation title: "[rule-id]" or a generic label.
func ruleTitle(tool, rule string) string {
	if rule == "" {
		return fmt.Sprintf("Uncategorized %s Issue", tool)
	}
	return "[" + rule + "]"
}

// checkTitle builds the one-line check run title from the verdict.
func checkTitle(tool string, numIssues int, v verdict) string {
	switch {
	case v.conclusion == ConclusionActionRequired:
		return fmt.Sprintf("%s found %d total issue(s), some require resolution.", tool, numIssues)
	case numIssues == 0:
		return fmt.Sprintf("%s found no issues.", tool)
	case v.unfiltered == ConclusionActionRequired:
		return fmt.Sprintf("%s only found issues in ignored files.", tool)
	default:
		return fmt.Sprintf("%s found no issues needing resolution, but %d notice(s).", tool, numIssues)
	}
}

// quoteBlock renders text as a markdown block quote.
func quoteBlock(text string) string {
	return "> " + strings.Join(strings.Split(strings.TrimRight(text, "\n"), "\n"), "\n> ")
}

// emptyOutput is the shared "nothing found" result.
func emptyOutput(tool string) (*Output, Conclusion) {
	return &Output{
		Title:       fmt.Sprintf("%s found no issues.", tool),
		Summary:     niceWork,
		Annotations: []Annotation{},
	}, ConclusionSuccess
}
