package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Entry kinds.
const (
	KindSync     = "sync"
	KindMuxAdd   = "mux_add"
	KindMuxPrune = "mux_prune"
)

// Entry statuses.
const (
	StatusPromoted = "promoted"
	StatusMuxed    = "muxed"
	StatusFailed   = "failed"
	StatusSkipped  = "skipped"
	StatusDryRun   = "dry_run"
)

// Run statuses.
const (
	RunRunning     = "running"
	RunSucceeded   = "succeeded"
	RunFailed      = "failed"
	RunInterrupted = "interrupted"
)

// Run is one CLI invocation.
type Run struct {
	ID         string    `json:"id"`
	Command    string    `json:"command"`
	Roots      []string  `json:"roots,omitempty"`
	DryRun     bool      `json:"dry_run"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Status     string    `json:"status"`
	ExitCode   int       `json:"exit_code"`
	Processed  int       `json:"processed"`
	Failed     int       `json:"failed"`
}

// Entry is the outcome for one subtitle or remux.
type Entry struct {
	ID        int64         `json:"id"`
	RunID     string        `json:"run_id"`
	Kind      string        `json:"kind"`
	Media     string        `json:"media"`
	Subtitle  string        `json:"subtitle,omitempty"`
	Language  string        `json:"language,omitempty"`
	Output    string        `json:"output,omitempty"`
	Backup    string        `json:"backup,omitempty"`
	Status    string        `json:"status"`
	ExitCode  int           `json:"exit_code"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
	CreatedAt time.Time     `json:"created_at"`

	resultSize    int64
	resultMtimeNs int64
}

// Fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// BeginRun records the start of a run.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	return s.exec(ctx,
		`INSERT INTO runs (id, command, roots, dry_run, started_at, status) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Command, strings.Join(run.Roots, "\n"), boolToInt(run.DryRun),
		run.StartedAt.UTC().Format(timeLayout), RunRunning,
	)
}

// FinishRun stamps the final status of a run.
func (s *Store) FinishRun(ctx context.Context, id, status string, exitCode, processed, failed int) error {
	return s.exec(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, exit_code = ?, processed = ?, failed = ? WHERE id = ?`,
		time.Now().UTC().Format(timeLayout), status, exitCode, processed, failed, id,
	)
}

// Record appends an entry. For promoted subtitles the current size and
// modification time of the subtitle are captured so later runs can tell
// whether it changed.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if entry.Status == StatusPromoted && entry.Subtitle != "" {
		if info, err := os.Stat(entry.Subtitle); err == nil {
			entry.resultSize = info.Size()
			entry.resultMtimeNs = info.ModTime().UnixNano()
		}
	}
	return s.exec(ctx,
		`INSERT INTO entries (run_id, kind, media, subtitle, language, output, backup, status, exit_code, error,
			duration_ms, result_size, result_mtime_ns, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID, entry.Kind, entry.Media, entry.Subtitle, entry.Language, entry.Output, entry.Backup,
		entry.Status, entry.ExitCode, entry.Error, entry.Duration.Milliseconds(),
		entry.resultSize, entry.resultMtimeNs, entry.CreatedAt.UTC().Format(timeLayout),
	)
}

// AlreadySynced reports whether subtitle was promoted by an earlier run and
// is unchanged on disk since then.
func (s *Store) AlreadySynced(ctx context.Context, subtitle string) (bool, error) {
	ctx = ensureContext(ctx)
	var size, mtime int64
	err := s.db.QueryRowContext(ctx,
		`SELECT result_size, result_mtime_ns FROM entries
		 WHERE subtitle = ? AND kind = ? AND status = ?
		 ORDER BY id DESC LIMIT 1`,
		subtitle, KindSync, StatusPromoted,
	).Scan(&size, &mtime)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query ledger for %s: %w", subtitle, err)
	}
	info, err := os.Stat(subtitle)
	if err != nil {
		return false, nil
	}
	return info.Size() == size && info.ModTime().UnixNano() == mtime, nil
}

// Filter narrows Entries results.
type Filter struct {
	RunID  string
	Media  string
	Status string
	Limit  int
}

// Entries returns entries newest first.
func (s *Store) Entries(ctx context.Context, f Filter) ([]Entry, error) {
	ctx = ensureContext(ctx)
	var (
		clauses []string
		args    []any
	)
	if f.RunID != "" {
		clauses = append(clauses, "run_id = ?")
		args = append(args, f.RunID)
	}
	if f.Media != "" {
		clauses = append(clauses, "media LIKE ?")
		args = append(args, "%"+f.Media+"%")
	}
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, f.Status)
	}
	query := `SELECT id, run_id, kind, media, subtitle, language, output, backup, status, exit_code, error,
		duration_ms, created_at FROM entries`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			durationMs int64
			created    string
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.Kind, &e.Media, &e.Subtitle, &e.Language, &e.Output, &e.Backup,
			&e.Status, &e.ExitCode, &e.Error, &durationMs, &created); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Duration = time.Duration(durationMs) * time.Millisecond
		e.CreatedAt = parseTime(created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Runs returns the most recent runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	ctx = ensureContext(ctx)
	query := `SELECT id, command, roots, dry_run, started_at, COALESCE(finished_at, ''), status, exit_code,
		processed, failed FROM runs ORDER BY started_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			roots             string
			dryRun            int
			started, finished string
		)
		if err := rows.Scan(&r.ID, &r.Command, &roots, &dryRun, &started, &finished, &r.Status, &r.ExitCode,
			&r.Processed, &r.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if roots != "" {
			r.Roots = strings.Split(roots, "\n")
		}
		r.DryRun = dryRun != 0
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Prune deletes runs (and their entries) that started before cutoff.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx = ensureContext(ctx)
	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, cutoff.UTC().Format(timeLayout))
		return execErr
	})
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
