package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lucasnoah/github-checks/internal/checks"
)

// CheckRun represents a row in the check_runs table.
type CheckRun struct {
	ID         int64
	Repo       string
	HeadSHA    string
	CheckName  string
	RunID      int64
	ExternalID string
	LogFormat  string
	Conclusion checks.Conclusion
	Title      string
	Failures   int
	Warnings   int
	Notices    int
	StartedAt  time.Time
	FinishedAt time.Time
}

// CountLevels tallies annotations per level.
func CountLevels(annotations []checks.Annotation) (failures, warnings, notices int) {
	for _, a := range annotations {
		switch a.Level {
		case checks.LevelFailure:
			failures++
		case checks.LevelWarning:
			warnings++
		default:
			notices++
		}
	}
	return failures, warnings, notices
}

// LogCheckRun inserts a finished check run and returns its row id.
func (d *DB) LogCheckRun(ctx context.Context, r CheckRun) (int64, error) {
	var startedAt *time.Time
	if !r.StartedAt.IsZero() {
		startedAt = &r.StartedAt
	}
	var id int64
	err := d.pool.QueryRow(ctx,
		`INSERT INTO check_runs (repo, head_sha, check_name, run_id, external_id, log_format, conclusion, title, failures, warnings, notices, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`,
		r.Repo, r.HeadSHA, r.CheckName, r.RunID, r.ExternalID, r.LogFormat, string(r.Conclusion), r.Title,
		r.Failures, r.Warnings, r.Notices, startedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("log check run: %w", err)
	}
	return id, nil
}

const checkRunColumns = `id, repo, head_sha, check_name, COALESCE(run_id, 0), COALESCE(external_id, ''), log_format,
	conclusion, title, failures, warnings, notices, COALESCE(started_at, finished_at), finished_at`

func scanCheckRun(row pgx.Row) (CheckRun, error) {
	var r CheckRun
	var conclusion string
	err := row.Scan(&r.ID, &r.Repo, &r.HeadSHA, &r.CheckName, &r.RunID, &r.ExternalID, &r.LogFormat,
		&conclusion, &r.Title, &r.Failures, &r.Warnings, &r.Notices, &r.StartedAt, &r.FinishedAt)
	r.Conclusion = checks.Conclusion(conclusion)
	return r, err
}

// HistoryFilter narrows GetCheckHistory. Empty fields match everything.
type HistoryFilter struct {
	Repo      string
	CheckName string
	Limit     int
}

// GetCheckHistory returns recorded runs, most recent first.
func (d *DB) GetCheckHistory(ctx context.Context, f HistoryFilter) ([]CheckRun, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.pool.Query(ctx,
		`SELECT `+checkRunColumns+`
		 FROM check_runs
		 WHERE ($1 = '' OR repo = $1) AND ($2 = '' OR check_name = $2)
		 ORDER BY finished_at DESC, id DESC LIMIT $3`,
		f.Repo, f.CheckName, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("get check history: %w", err)
	}
	defer rows.Close()

	var runs []CheckRun
	for rows.Next() {
		r, err := scanCheckRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan check run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LatestCheckRun returns the most recent run of a check, or nil if none exists.
func (d *DB) LatestCheckRun(ctx context.Context, repo, checkName string) (*CheckRun, error) {
	row := d.pool.QueryRow(ctx,
		`SELECT `+checkRunColumns+`
		 FROM check_runs WHERE repo = $1 AND check_name = $2
		 ORDER BY finished_at DESC, id DESC LIMIT 1`,
		repo, checkName,
	)
	r, err := scanCheckRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest check run: %w", err)
	}
	return &r, nil
}
