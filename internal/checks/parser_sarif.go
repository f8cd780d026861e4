package checks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chainguard-dev/clog"
)

// SARIFParser parses SARIF 2.1.0 documents. Only the first run is reported.
type SARIFParser struct{}

type sarifMessage struct {
	Text     string `json:"text"`
	Markdown string `json:"markdown"`
}

type sarifRule struct {
	ID                   string        `json:"id"`
	Name                 string        `json:"name"`
	HelpURI              string        `json:"helpUri"`
	ShortDescription     *sarifMessage `json:"shortDescription"`
	FullDescription      *sarifMessage `json:"fullDescription"`
	DefaultConfiguration *struct {
		Level string `json:"level"`
	} `json:"defaultConfiguration"`
	Properties map[string]any `json:"properties"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn"`
	EndLine     int `json:"endLine"`
	EndColumn   int `json:"endColumn"`
}

type sarifLocation struct {
	PhysicalLocation *struct {
		ArtifactLocation *struct {
			URI string `json:"uri"`
		} `json:"artifactLocation"`
		Region *sarifRegion `json:"region"`
	} `json:"physicalLocation"`
}

type sarifResult struct {
	RuleID    string `json:"ruleId"`
	RuleIndex *int   `json:"ruleIndex"`
	Rule      *struct {
		ID    string `json:"id"`
		Index *int   `json:"index"`
	} `json:"rule"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations"`
}

type sarifRun struct {
	Tool struct {
		Driver struct {
			Name  string      `json:"name"`
			Rules []sarifRule `json:"rules"`
		} `json:"driver"`
	} `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifLog struct {
	Version string     `json:"version" validate:"required"`
	Runs    []sarifRun `json:"runs" validate:"required"`
}

var sarifLevels = map[string]AnnotationLevel{
	"error":   LevelWarning,
	"warning": LevelWarning,
	"note":    LevelNotice,
	"none":    LevelNotice,
}

// ruleName prefers the declared name, then properties.name, then the last
// help URI segment.
func (r *sarifRule) ruleName() string {
	if r.Name != "" {
		return r.Name
	}
	if name, ok := r.Properties["name"].(string); ok && name != "" {
		return name
	}
	if uri := strings.TrimRight(r.HelpURI, "/"); uri != "" {
		return uri[strings.LastIndex(uri, "/")+1:]
	}
	return "Unknown Rule"
}

// description prefers plain text over markdown.
func (r *sarifRule) description() string {
	if r.FullDescription == nil {
		return ""
	}
	if r.FullDescription.Text != "" {
		return r.FullDescription.Text
	}
	return r.FullDescription.Markdown
}

// findRule resolves the result's rule by id, falling back to its index.
func (run *sarifRun) findRule(res *sarifResult, byID map[string]int) (*sarifRule, string) {
	id := res.RuleID
	if id == "" && res.Rule != nil {
		id = res.Rule.ID
	}
	if i, ok := byID[id]; ok && id != "" {
		return &run.Tool.Driver.Rules[i], id
	}
	idx := res.RuleIndex
	if idx == nil && res.Rule != nil {
		idx = res.Rule.Index
	}
	if idx != nil && *idx >= 0 && *idx < len(run.Tool.Driver.Rules) {
		rule := &run.Tool.Driver.Rules[*idx]
		if id == "" {
			id = rule.ID
		}
		return rule, id
	}
	return nil, id
}

// annotationTexts builds title, message and raw details for one result.
func annotationTexts(res *sarifResult, rule *sarifRule, ruleID string) (title, message, rawDetails string) {
	name := rule.ruleName()
	title = name
	if ruleID != "" {
		title = fmt.Sprintf("[%s]: %s", ruleID, name)
	}

	if desc := rule.description(); desc != "" {
		rawDetails = "Background for this rule per tool's documentation:\n" + quoteBlock(desc)
	}

	message = res.Message.Markdown
	if message == "" {
		message = res.Message.Text
	}

	var pointers []string
	if rawDetails != "" {
		pointers = append(pointers, "the raw details of this comment")
	}
	if ruleID != "" {
		uri := ""
		if rule.HelpURI != "" {
			uri = "(" + rule.HelpURI + ") "
		}
		pointers = append(pointers, fmt.Sprintf("documentation for rule %s %sfor more information.", ruleID, uri))
	}
	if len(pointers) > 0 {
		if message != "" {
			message += "\n\n"
		}
		message += "See " + strings.Join(pointers, " or ")
	}
	if message == "" {
		message = "No additional information provided."
	}
	return title, message, rawDetails
}

func (p *SARIFParser) Parse(ctx context.Context, outputPath string, opts Options) (*Output, Conclusion, error) {
	log := clog.FromContext(ctx)

	data, err := readOutput(outputPath)
	if err != nil {
		return nil, "", err
	}
	if data == nil {
		out, c := emptyOutput("SARIF")
		return out, c, nil
	}

	var doc sarifLog
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, "", &ParseError{Format: "sarif", Path: outputPath, Err: err}
	}
	if err := validate.Struct(&doc); err != nil {
		return nil, "", &ParseError{Format: "sarif", Path: outputPath, Err: err}
	}
	if len(doc.Runs) == 0 {
		out, c := emptyOutput("SARIF")
		return out, c, nil
	}
	if len(doc.Runs) > 1 {
		log.Warnf("SARIF log has %d runs, only the first is reported", len(doc.Runs))
	}

	run := &doc.Runs[0]
	tool := run.Tool.Driver.Name
	if tool == "" {
		tool = "Unknown"
	}
	rules := run.Tool.Driver.Rules
	byID := make(map[string]int, len(rules))
	for i, r := range rules {
		if _, dup := byID[r.ID]; !dup {
			byID[r.ID] = i
		}
	}

	tally := newRuleTally()
	var annotations []Annotation
	numIssues := 0
	for i := range run.Results {
		res := &run.Results[i]
		rule, ruleID := run.findRule(res, byID)
		if rule == nil {
			log.Debugf("skipping SARIF result %d: rule %q is not declared by the tool", i, ruleID)
			continue
		}

		levelName := res.Level
		if levelName == "" && rule.DefaultConfiguration != nil {
			levelName = rule.DefaultConfiguration.Level
		}
		level, ok := sarifLevels[levelName]
		if !ok {
			level = LevelNotice
		}

		title, message, rawDetails := annotationTexts(res, rule, ruleID)
		located := false
		for _, loc := range res.Locations {
			phys := loc.PhysicalLocation
			if phys == nil || phys.ArtifactLocation == nil || phys.Region == nil || phys.Region.StartLine < 1 {
				log.Debugf("skipping SARIF location without file or region for rule %q", ruleID)
				continue
			}
			path, ok := pathFromURI(phys.ArtifactLocation.URI)
			if !ok {
				log.Debugf("skipping SARIF location with unsupported uri %q", phys.ArtifactLocation.URI)
				continue
			}
			r := phys.Region
			a := Annotation{
				StartLine:   r.StartLine,
				EndLine:     r.EndLine,
				StartColumn: r.StartColumn,
				EndColumn:   r.EndColumn,
				Level:       level,
				Title:       title,
				Message:     message,
				RawDetails:  rawDetails,
			}
			if a, ok := locate(ctx, a, path, opts); ok {
				annotations = append(annotations, a)
				located = true
			}
		}
		if located {
			numIssues++
			tally.add(ruleID)
		}
	}

	if numIssues == 0 {
		out, c := emptyOutput(tool)
		return out, c, nil
	}

	v := applyIgnores(annotations, opts)
	if v.display == nil {
		v.display = []Annotation{}
	}
	return &Output{
		Title:       checkTitle(tool, numIssues, v),
		Summary:     sarifSummary(tool, rules, tally),
		Annotations: v.display,
	}, v.conclusion, nil
}

// sarifSummary lists triggered rule counts and documents every declared rule.
func sarifSummary(tool string, rules []sarifRule, tally *ruleTally) string {
	var b strings.Builder
	b.WriteString("Rules triggered:\n")
	b.WriteString(tally.markdown())
	b.WriteString("\n\n")
	for i := range rules {
		rule := &rules[i]
		id := "[" + rule.ID + "]"
		if rule.HelpURI != "" {
			id = fmt.Sprintf("[[%s](%s)]", rule.ID, rule.HelpURI)
		}
		fmt.Fprintf(&b, "## %s %s\n", id, rule.ruleName())
		desc := ""
		if rule.FullDescription != nil {
			desc = rule.FullDescription.Markdown
			if desc == "" {
				desc = rule.FullDescription.Text
			}
		}
		if desc == "" && rule.ShortDescription != nil {
			desc = rule.ShortDescription.Text
		}
		if desc != "" {
			fmt.Fprintf(&b, "Background for this rule per %s's documentation:\n%s\n", tool, quoteBlock(desc))
		}
		b.WriteString("\n")
	}
	b.WriteString("Navigate to the source files via the annotations below to see the offending code.")
	return b.String()
}
