package analytics

import (
	"math"
	"sort"

	"github.com/lucasnoah/github-checks/internal/checks"
	"github.com/lucasnoah/github-checks/internal/db"
)

// CheckStats aggregates the recorded runs of one check in one repository.
type CheckStats struct {
	Repo           string  `json:"repo"`
	Check          string  `json:"check"`
	Runs           int     `json:"runs"`
	ActionRequired float64 `json:"action_required_pct"`
	Cancelled      float64 `json:"cancelled_pct"`
	AvgFindings    float64 `json:"avg_findings"`
	AvgSeconds     float64 `json:"avg_seconds"`
	P50Seconds     float64 `json:"p50_seconds"`
	P95Seconds     float64 `json:"p95_seconds"`
}

// Summarize groups runs by repository and check name. Durations only count
// runs with a recorded start time.
func Summarize(runs []db.CheckRun) []CheckStats {
	type key struct{ repo, check string }
	type acc struct {
		runs, actionRequired, cancelled, findings int
		durations                                 []float64
	}
	groups := make(map[key]*acc)
	for _, r := range runs {
		k := key{r.Repo, r.CheckName}
		a, ok := groups[k]
		if !ok {
			a = &acc{}
			groups[k] = a
		}
		a.runs++
		switch r.Conclusion {
		case checks.ConclusionActionRequired:
			a.actionRequired++
		case checks.ConclusionCancelled:
			a.cancelled++
		}
		a.findings += r.Failures + r.Warnings + r.Notices
		if !r.StartedAt.IsZero() && r.FinishedAt.After(r.StartedAt) {
			a.durations = append(a.durations, r.FinishedAt.Sub(r.StartedAt).Seconds())
		}
	}

	results := make([]CheckStats, 0, len(groups))
	for k, a := range groups {
		sort.Float64s(a.durations)
		results = append(results, CheckStats{
			Repo:           k.repo,
			Check:          k.check,
			Runs:           a.runs,
			ActionRequired: pct(a.actionRequired, a.runs),
			Cancelled:      pct(a.cancelled, a.runs),
			AvgFindings:    math.Round(float64(a.findings)/float64(a.runs)*10) / 10,
			AvgSeconds:     avg(a.durations),
			P50Seconds:     percentile(a.durations, 50),
			P95Seconds:     percentile(a.durations, 95),
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Repo != results[j].Repo {
			return results[i].Repo < results[j].Repo
		}
		return results[i].Check < results[j].Check
	})
	return results
}

// --- helpers ---

func avg(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return math.Round(sum/float64(len(values))*10) / 10
}

func percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := float64(p) / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper || upper >= len(sorted) {
		return math.Round(sorted[lower]*10) / 10
	}
	weight := rank - float64(lower)
	return math.Round((sorted[lower]*(1-weight)+sorted[upper]*weight)*10) / 10
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*1000) / 10
}
