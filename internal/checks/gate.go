package checks

import (
	"context"
	"encoding/json"
	"fmt"
)

// GateCheckResult holds the result of a single check within a gate run.
type GateCheckResult struct {
	Check       string     `json:"check"`
	Conclusion  Conclusion `json:"conclusion"`
	Title       string     `json:"title"`
	Annotations int        `json:"annotations"`
	DurationMs  int        `json:"duration_ms"`
}

// GateResult is the structured output of running several checks.
type GateResult struct {
	Passed bool              `json:"passed"`
	Checks []GateCheckResult `json:"checks"`
	// Failed lists the checks that concluded action_required.
	Failed []string `json:"failed,omitempty"`
}

// JSON returns the gate result as indented JSON.
func (g *GateResult) JSON() (string, error) {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// GateOpts configures a gate run.
type GateOpts struct {
	Dir      string
	Checks   []CheckConfig
	Continue bool // run all checks even if some fail
}

// RunGate executes the configured checks in order and returns a structured
// result. Each check result is also returned individually.
func (r *Runner) RunGate(ctx context.Context, opts GateOpts) (*GateResult, []*Result, error) {
	gate := &GateResult{Passed: true}
	var allResults []*Result

	for _, chk := range opts.Checks {
		result, err := r.Run(ctx, opts.Dir, chk)
		if err != nil {
			return nil, allResults, fmt.Errorf("run check %q: %w", chk.Name, err)
		}
		allResults = append(allResults, result)

		gate.Checks = append(gate.Checks, GateCheckResult{
			Check:       chk.Name,
			Conclusion:  result.Conclusion,
			Title:       result.Output.Title,
			Annotations: len(result.Output.Annotations),
			DurationMs:  result.DurationMs,
		})

		if result.Conclusion != ConclusionSuccess {
			gate.Passed = false
			gate.Failed = append(gate.Failed, chk.Name)
			if !opts.Continue {
				break
			}
		}
	}

	return gate, allResults, nil
}
