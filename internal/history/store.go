// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists sync-run results in a SQLite database so past
// runs, failures, and per-path outcomes can be queried and exported.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/lms-sync/pkg/types"
)

const (
	dbFile            = "history.db"
	defaultMaxResults = 50
)

// Store manages the run-history SQLite database.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
}

// NewStore opens or creates dir/history.db and its schema.
func NewStore(cfg types.HistoryConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, dir: cfg.Dir, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started TEXT NOT NULL,
			finished TEXT,
			downloaded INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			status TEXT NOT NULL,
			course TEXT,
			kind TEXT,
			path TEXT,
			reason TEXT,
			rendition TEXT,
			at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_items_run_id ON items(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_items_status ON items(status)`,
		`CREATE INDEX IF NOT EXISTS idx_items_path ON items(path)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Run is one stored sync run.
type Run struct {
	ID         int64     `json:"id" yaml:"id"`
	Started    time.Time `json:"started" yaml:"started"`
	Finished   time.Time `json:"finished" yaml:"finished"`
	Downloaded int       `json:"downloaded" yaml:"downloaded"`
	Skipped    int       `json:"skipped" yaml:"skipped"`
	Failed     int       `json:"failed" yaml:"failed"`
}

// SaveRun stores a report and all its items in one transaction and returns
// the new run ID.
func (s *Store) SaveRun(ctx context.Context, rep types.RunReport) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (started, finished, downloaded, skipped, failed) VALUES (?, ?, ?, ?, ?)`,
		formatTime(rep.Started), formatTime(rep.Finished), rep.Downloaded, rep.Skipped, rep.Failed,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO items (run_id, status, course, kind, path, reason, rendition, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, it := range rep.Items {
		_, err := stmt.ExecContext(ctx,
			runID, string(it.Status), it.Course, it.Kind, it.Path, it.Reason, it.Rendition, formatTime(it.At),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting item %s: %w", it.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// Runs returns the most recent runs, newest first. limit <= 0 uses the
// store default.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = s.maxResults
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started, finished, downloaded, skipped, failed
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished sql.NullString
		)
		if err := rows.Scan(&r.ID, &started, &finished, &r.Downloaded, &r.Skipped, &r.Failed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Started = parseTime(started.String)
		r.Finished = parseTime(finished.String)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LatestRunID returns the newest run ID, or 0 when no run is stored.
func (s *Store) LatestRunID(ctx context.Context) (int64, error) {
	var id sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(id) FROM runs`).Scan(&id); err != nil {
		return 0, fmt.Errorf("querying latest run: %w", err)
	}
	return id.Int64, nil
}

// QueryOptions filters item queries.
type QueryOptions struct {
	// RunID restricts results to one run. Zero means all runs.
	RunID int64

	// Status filters by outcome.
	Status types.ItemStatus

	// Course filters by case-insensitive substring of the course name.
	Course string

	// Path filters by substring of the local path.
	Path string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// Items returns stored item results matching opts, newest first.
func (s *Store) Items(ctx context.Context, opts QueryOptions) ([]types.ItemResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(`SELECT status, course, kind, path, reason, rendition, at FROM items WHERE 1=1`)

	if opts.RunID != 0 {
		qb.WriteString(` AND run_id = ?`)
		args = append(args, opts.RunID)
	}
	if opts.Status != "" {
		qb.WriteString(` AND status = ?`)
		args = append(args, string(opts.Status))
	}
	if opts.Course != "" {
		qb.WriteString(` AND lower(course) LIKE ?`)
		args = append(args, "%"+strings.ToLower(opts.Course)+"%")
	}
	if opts.Path != "" {
		qb.WriteString(` AND path LIKE ?`)
		args = append(args, "%"+opts.Path+"%")
	}
	qb.WriteString(` ORDER BY id DESC LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	var out []types.ItemResult
	for rows.Next() {
		var (
			it                                     types.ItemResult
			status                                 string
			course, kind, path, reason, rend, at sql.NullString
		)
		if err := rows.Scan(&status, &course, &kind, &path, &reason, &rend, &at); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		it.Status = types.ItemStatus(status)
		it.Course = course.String
		it.Kind = kind.String
		it.Path = path.String
		it.Reason = reason.String
		it.Rendition = rend.String
		it.At = parseTime(at.String)
		out = append(out, it)
	}
	return out, rows.Err()
}

// Prune deletes all but the newest keep runs and their items.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE id NOT IN (SELECT id FROM runs ORDER BY id DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning runs: %w", err)
	}
	return res.RowsAffected()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
