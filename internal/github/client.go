package github

import (
	"context"
	"fmt"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/chainguard-dev/clog"
	gh "github.com/google/go-github/v84/github"
	"golang.org/x/oauth2"

	"github.com/lucasnoah/github-checks/internal/checks"
)

const (
	// maxAnnotationsPerRequest is the Checks API limit per create/update call.
	maxAnnotationsPerRequest = 50
	// maxSummaryBytes is the Checks API limit for output.summary.
	maxSummaryBytes = 65535
)

// Checks drives one check run through the REST API on behalf of a session.
type Checks struct {
	client  *gh.Client
	session *Session
	now     func() time.Time
}

// NewChecks builds an authenticated API client for the session's repository.
func NewChecks(ctx context.Context, s *Session) (*Checks, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	base, err := url.Parse(s.APIBaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}

	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: s.Token}))
	client := gh.NewClient(httpClient)
	client.BaseURL = base
	return &Checks{client: client, session: s, now: time.Now}, nil
}

// Session returns the session state, updated by Start, Annotate and Finish.
func (c *Checks) Session() *Session {
	return c.session
}

// Start creates an in-progress check run for headSHA.
func (c *Checks) Start(ctx context.Context, headSHA, name string) error {
	if c.session.Running() {
		return fmt.Errorf("%w: run %d (%s)", ErrRunInProgress, c.session.RunID, c.session.CheckName)
	}
	if headSHA == "" {
		return fmt.Errorf("start check run: revision sha is required")
	}
	if name == "" {
		return fmt.Errorf("start check run: check name is required")
	}

	started := c.now().UTC().Truncate(time.Second)
	externalID := newExternalID()
	run, _, err := c.client.Checks.CreateCheckRun(ctx, c.session.Owner, c.session.Repo, gh.CreateCheckRunOptions{
		Name:       name,
		HeadSHA:    headSHA,
		Status:     gh.Ptr("in_progress"),
		StartedAt:  &gh.Timestamp{Time: started},
		ExternalID: gh.Ptr(externalID),
	})
	if err != nil {
		return fmt.Errorf("create check run: %w", err)
	}

	c.session.begin(run.GetID(), name, headSHA, started)
	c.session.ExternalID = externalID
	clog.FromContext(ctx).Infof("started check run %d (%s) for %s", run.GetID(), name, headSHA)
	return nil
}

// Annotate uploads an intermediate output without concluding the run. The
// session keeps the most severe conclusion seen so far for Finish.
func (c *Checks) Annotate(ctx context.Context, out *checks.Output, conclusion checks.Conclusion) error {
	if !c.session.Running() {
		return ErrNoRunningCheck
	}
	if err := c.send(ctx, out, "", false); err != nil {
		return err
	}
	c.session.Title = out.Title
	c.session.Summary = out.Summary
	c.session.Annotations += len(out.Annotations)
	c.session.Conclusion = worst(c.session.Conclusion, conclusion)
	return nil
}

// Finish completes the running check run. A nil output reuses whatever an
// earlier Annotate recorded; an empty conclusion falls back to that record
// and then to success.
func (c *Checks) Finish(ctx context.Context, out *checks.Output, conclusion checks.Conclusion) error {
	if !c.session.Running() {
		return ErrNoRunningCheck
	}
	if out == nil {
		out = &checks.Output{Title: c.session.Title, Summary: c.session.Summary}
		if out.Title == "" {
			out.Title = c.session.CheckName
		}
	}
	if conclusion == "" {
		conclusion = c.session.Conclusion
	}
	if conclusion == "" {
		conclusion = checks.ConclusionSuccess
	}

	if err := c.send(ctx, out, conclusion, true); err != nil {
		return err
	}
	clog.FromContext(ctx).Infof("finished check run %d with conclusion %s", c.session.RunID, conclusion)
	c.session.Conclusion = conclusion
	c.session.Title = out.Title
	c.session.RunID = 0
	return nil
}

// send patches the run, splitting annotations into API-sized batches. When
// complete is set the last batch carries the conclusion.
func (c *Checks) send(ctx context.Context, out *checks.Output, conclusion checks.Conclusion, complete bool) error {
	batches := batchAnnotations(out.Annotations, maxAnnotationsPerRequest)
	if len(batches) == 0 {
		batches = [][]*gh.CheckRunAnnotation{nil}
	}

	log := clog.FromContext(ctx)
	for i, batch := range batches {
		opts := gh.UpdateCheckRunOptions{
			Name: c.session.CheckName,
			Output: &gh.CheckRunOutput{
				Title:       gh.Ptr(out.Title),
				Summary:     gh.Ptr(capText(out.Summary, maxSummaryBytes)),
				Annotations: batch,
			},
		}
		if complete && i == len(batches)-1 {
			opts.Status = gh.Ptr("completed")
			opts.Conclusion = gh.Ptr(string(conclusion))
			opts.CompletedAt = &gh.Timestamp{Time: c.now().UTC().Truncate(time.Second)}
		}
		if _, _, err := c.client.Checks.UpdateCheckRun(ctx, c.session.Owner, c.session.Repo, c.session.RunID, opts); err != nil {
			return fmt.Errorf("update check run %d (batch %d/%d): %w", c.session.RunID, i+1, len(batches), err)
		}
		log.Debugf("sent batch %d/%d with %d annotations", i+1, len(batches), len(batch))
	}
	return nil
}

// batchAnnotations converts annotations and splits them into chunks of size n.
func batchAnnotations(annotations []checks.Annotation, n int) [][]*gh.CheckRunAnnotation {
	var batches [][]*gh.CheckRunAnnotation
	for start := 0; start < len(annotations); start += n {
		end := min(start+n, len(annotations))
		batch := make([]*gh.CheckRunAnnotation, 0, end-start)
		for _, a := range annotations[start:end] {
			batch = append(batch, toAPIAnnotation(a))
		}
		batches = append(batches, batch)
	}
	return batches
}

// toAPIAnnotation maps a normalized annotation onto the API shape. The API
// requires start and end lines, so unset lines default to the first line.
func toAPIAnnotation(a checks.Annotation) *gh.CheckRunAnnotation {
	start := a.StartLine
	if start < 1 {
		start = 1
	}
	end := a.EndLine
	if end < start {
		end = start
	}
	out := &gh.CheckRunAnnotation{
		Path:            gh.Ptr(a.Path),
		StartLine:       gh.Ptr(start),
		EndLine:         gh.Ptr(end),
		AnnotationLevel: gh.Ptr(string(a.Level)),
		Message:         gh.Ptr(a.Message),
	}
	if a.Message == "" {
		out.Message = gh.Ptr(a.Title)
	}
	if start == end && a.StartColumn > 0 {
		out.StartColumn = gh.Ptr(a.StartColumn)
		if a.EndColumn > 0 {
			out.EndColumn = gh.Ptr(a.EndColumn)
		}
	}
	if a.Title != "" {
		out.Title = gh.Ptr(a.Title)
	}
	if a.RawDetails != "" {
		out.RawDetails = gh.Ptr(a.RawDetails)
	}
	return out
}

// capText trims s to at most limit bytes on a rune boundary.
func capText(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// worst returns the more severe of two conclusions.
func worst(a, b checks.Conclusion) checks.Conclusion {
	rank := map[checks.Conclusion]int{
		"":                              0,
		checks.ConclusionSuccess:        1,
		checks.ConclusionActionRequired: 2,
		checks.ConclusionCancelled:      3,
	}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
