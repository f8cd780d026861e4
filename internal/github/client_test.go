package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	gh "github.com/google/go-github/v84/github"

	"github.com/lucasnoah/github-checks/internal/checks"
)

// fakeChecksAPI records check-run requests made against a fake REST API.
type fakeChecksAPI struct {
	mu      sync.Mutex
	created []gh.CreateCheckRunOptions
	updates []gh.UpdateCheckRunOptions
	auth    []string
	failAll bool
}

func (f *fakeChecksAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /repos/octo/hello/check-runs", func(w http.ResponseWriter, r *http.Request) {
		var opts gh.CreateCheckRunOptions
		if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
			t.Errorf("decode create body: %v", err)
		}
		f.mu.Lock()
		f.created = append(f.created, opts)
		f.auth = append(f.auth, r.Header.Get("Authorization"))
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id": 42, "status": "in_progress"}`)
	})
	mux.HandleFunc("PATCH /repos/octo/hello/check-runs/42", func(w http.ResponseWriter, r *http.Request) {
		if f.failAll {
			w.WriteHeader(http.StatusUnprocessableEntity)
			fmt.Fprint(w, `{"message": "Validation Failed"}`)
			return
		}
		var opts gh.UpdateCheckRunOptions
		if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
			t.Errorf("decode update body: %v", err)
		}
		f.mu.Lock()
		f.updates = append(f.updates, opts)
		f.auth = append(f.auth, r.Header.Get("Authorization"))
		f.mu.Unlock()
		fmt.Fprint(w, `{"id": 42}`)
	})
	return mux
}

func newTestChecks(t *testing.T, api *fakeChecksAPI) *Checks {
	t.Helper()
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)

	s, err := NewSession("https://github.com/octo/hello", "ghs_token")
	if err != nil {
		t.Fatal(err)
	}
	s.APIBaseURL = srv.URL + "/"
	c, err := NewChecks(context.Background(), s)
	if err != nil {
		t.Fatalf("new checks: %v", err)
	}
	c.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return c
}

func manyAnnotations(n int) []checks.Annotation {
	anns := make([]checks.Annotation, n)
	for i := range anns {
		anns[i] = checks.Annotation{
			Path:      fmt.Sprintf("src/f%d.py", i),
			StartLine: i + 1,
			EndLine:   i + 1,
			Level:     checks.LevelWarning,
			Title:     "[E1]",
			Message:   "problem",
		}
	}
	return anns
}

func TestChecks_Start(t *testing.T) {
	api := &fakeChecksAPI{}
	c := newTestChecks(t, api)

	if err := c.Start(context.Background(), "abc123", "mypy"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(api.created) != 1 {
		t.Fatalf("expected 1 create call, got %d", len(api.created))
	}
	got := api.created[0]
	if got.Name != "mypy" || got.HeadSHA != "abc123" {
		t.Errorf("unexpected create options %+v", got)
	}
	if got.GetStatus() != "in_progress" {
		t.Errorf("expected in_progress, got %q", got.GetStatus())
	}
	if got.GetExternalID() == "" {
		t.Error("expected an external id")
	}
	if api.auth[0] != "Bearer ghs_token" {
		t.Errorf("expected bearer token, got %q", api.auth[0])
	}

	s := c.Session()
	if s.RunID != 42 || s.CheckName != "mypy" || s.HeadSHA != "abc123" {
		t.Errorf("session not updated: %+v", s)
	}
	if err := c.Start(context.Background(), "abc123", "mypy"); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("expected ErrRunInProgress, got %v", err)
	}
}

func TestChecks_FinishBatchesAnnotations(t *testing.T) {
	api := &fakeChecksAPI{}
	c := newTestChecks(t, api)
	if err := c.Start(context.Background(), "abc123", "mypy"); err != nil {
		t.Fatal(err)
	}

	out := &checks.Output{Title: "Mypy found 120 total issue(s)", Summary: "Rules triggered", Annotations: manyAnnotations(120)}
	if err := c.Finish(context.Background(), out, checks.ConclusionActionRequired); err != nil {
		t.Fatalf("finish: %v", err)
	}

	if len(api.updates) != 3 {
		t.Fatalf("expected 3 update calls, got %d", len(api.updates))
	}
	wantSizes := []int{50, 50, 20}
	for i, u := range api.updates {
		if n := len(u.Output.Annotations); n != wantSizes[i] {
			t.Errorf("batch %d: expected %d annotations, got %d", i, wantSizes[i], n)
		}
		last := i == len(api.updates)-1
		if last != (u.Conclusion != nil) {
			t.Errorf("batch %d: conclusion presence %v, want %v", i, u.Conclusion != nil, last)
		}
	}
	final := api.updates[2]
	if final.GetConclusion() != "action_required" || final.GetStatus() != "completed" {
		t.Errorf("unexpected final update %+v", final)
	}
	if final.CompletedAt == nil {
		t.Error("expected completed_at on final update")
	}
	if c.Session().Running() {
		t.Error("expected session to no longer be running")
	}
	if s := c.Session(); s.Conclusion != checks.ConclusionActionRequired || s.Title != out.Title {
		t.Errorf("expected final conclusion and title recorded, got %q / %q", s.Conclusion, s.Title)
	}
}

func TestChecks_FinishWithoutAnnotations(t *testing.T) {
	api := &fakeChecksAPI{}
	c := newTestChecks(t, api)
	if err := c.Start(context.Background(), "abc123", "raw"); err != nil {
		t.Fatal(err)
	}
	out := &checks.Output{Title: "Raw Check Results", Summary: strings.Repeat("é", 40000)}
	if err := c.Finish(context.Background(), out, checks.ConclusionSuccess); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if len(api.updates) != 1 {
		t.Fatalf("expected 1 update call, got %d", len(api.updates))
	}
	summary := api.updates[0].Output.GetSummary()
	if len(summary) > maxSummaryBytes {
		t.Errorf("summary not capped: %d bytes", len(summary))
	}
	if !strings.HasPrefix(summary, "éé") || strings.HasSuffix(summary, "\xc3") {
		t.Error("summary cut inside a rune")
	}
}

func TestChecks_AnnotateThenFinish(t *testing.T) {
	api := &fakeChecksAPI{}
	c := newTestChecks(t, api)
	if err := c.Start(context.Background(), "abc123", "lint"); err != nil {
		t.Fatal(err)
	}

	out := &checks.Output{Title: "Ruff found 2 total issue(s)", Summary: "s", Annotations: manyAnnotations(2)}
	if err := c.Annotate(context.Background(), out, checks.ConclusionActionRequired); err != nil {
		t.Fatalf("annotate: %v", err)
	}
	if err := c.Annotate(context.Background(), &checks.Output{Title: "clean", Summary: "Nice work!"}, checks.ConclusionSuccess); err != nil {
		t.Fatalf("annotate: %v", err)
	}
	if api.updates[0].Conclusion != nil {
		t.Error("intermediate uploads must not conclude the run")
	}

	if err := c.Finish(context.Background(), nil, ""); err != nil {
		t.Fatalf("finish: %v", err)
	}
	final := api.updates[len(api.updates)-1]
	if final.GetConclusion() != "action_required" {
		t.Errorf("expected earlier action_required to stick, got %q", final.GetConclusion())
	}
	if final.Output.GetTitle() != "clean" {
		t.Errorf("expected last recorded title, got %q", final.Output.GetTitle())
	}
}

func TestChecks_RequiresRunningCheck(t *testing.T) {
	c := newTestChecks(t, &fakeChecksAPI{})
	if err := c.Finish(context.Background(), &checks.Output{}, checks.ConclusionSuccess); !errors.Is(err, ErrNoRunningCheck) {
		t.Errorf("expected ErrNoRunningCheck from Finish, got %v", err)
	}
	if err := c.Annotate(context.Background(), &checks.Output{}, checks.ConclusionSuccess); !errors.Is(err, ErrNoRunningCheck) {
		t.Errorf("expected ErrNoRunningCheck from Annotate, got %v", err)
	}
}

func TestChecks_TransmissionErrorIsReturned(t *testing.T) {
	api := &fakeChecksAPI{}
	c := newTestChecks(t, api)
	if err := c.Start(context.Background(), "abc123", "mypy"); err != nil {
		t.Fatal(err)
	}
	api.failAll = true
	err := c.Finish(context.Background(), &checks.Output{Title: "t", Summary: "s"}, checks.ConclusionSuccess)
	if err == nil {
		t.Fatal("expected error")
	}
	if !c.Session().Running() {
		t.Error("a failed finish must leave the run recorded")
	}
}

func TestToAPIAnnotation(t *testing.T) {
	got := toAPIAnnotation(checks.Annotation{Path: "a.py", Level: checks.LevelNotice, Title: "t"})
	if got.GetStartLine() != 1 || got.GetEndLine() != 1 {
		t.Errorf("expected unset lines to default to 1, got %d-%d", got.GetStartLine(), got.GetEndLine())
	}
	if got.GetMessage() != "t" {
		t.Errorf("expected title as message fallback, got %q", got.GetMessage())
	}
	if got.StartColumn != nil || got.RawDetails != nil {
		t.Errorf("expected no columns or raw details, got %+v", got)
	}

	multi := toAPIAnnotation(checks.Annotation{Path: "a.py", StartLine: 2, EndLine: 4, StartColumn: 3, EndColumn: 5, Level: checks.LevelFailure, Message: "m"})
	if multi.StartColumn != nil || multi.EndColumn != nil {
		t.Error("multi-line annotations must not carry columns")
	}

	single := toAPIAnnotation(checks.Annotation{Path: "a.py", StartLine: 2, EndLine: 2, StartColumn: 3, EndColumn: 5, Level: checks.LevelWarning, Message: "m", RawDetails: "d"})
	if single.GetStartColumn() != 3 || single.GetEndColumn() != 5 || single.GetRawDetails() != "d" {
		t.Errorf("unexpected single-line annotation %+v", single)
	}
	if single.GetAnnotationLevel() != "warning" {
		t.Errorf("expected warning, got %q", single.GetAnnotationLevel())
	}
}

func TestWorst(t *testing.T) {
	if got := worst("", checks.ConclusionSuccess); got != checks.ConclusionSuccess {
		t.Errorf("expected success, got %q", got)
	}
	if got := worst(checks.ConclusionActionRequired, checks.ConclusionSuccess); got != checks.ConclusionActionRequired {
		t.Errorf("expected action_required, got %q", got)
	}
}
