// Package auditstore persists audit-run history, supplementing the JSON
// baseline file described in the audit task's interface with a durable,
// queryable log of prior runs for long-running hosts.
package auditstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Issue is a single audit finding recorded against a run.
type Issue struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"runId"`
	StepID    string    `json:"stepId"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	Path      string    `json:"path,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Store is a SQLite-backed append-only log of audit issues keyed by run.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (creating if necessary) a Store at dbPath. Use ":memory:" for
// an ephemeral store, useful in tests.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("auditstore: open: %w", err)
	}
	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("auditstore: initialize: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS issues (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		step_id TEXT NOT NULL,
		severity TEXT NOT NULL,
		message TEXT NOT NULL,
		path TEXT,
		timestamp INTEGER NOT NULL,
		extra TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_run_id ON issues(run_id);
	CREATE INDEX IF NOT EXISTS idx_step_id ON issues(step_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends one issue to the history.
func (s *Store) Record(ctx context.Context, issue Issue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if issue.Timestamp.IsZero() {
		issue.Timestamp = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO issues (run_id, step_id, severity, message, path, timestamp) VALUES (?, ?, ?, ?, ?, ?)",
		issue.RunID, issue.StepID, issue.Severity, issue.Message, issue.Path, issue.Timestamp.Unix(),
	)
	if err != nil {
		return fmt.Errorf("auditstore: insert issue: %w", err)
	}
	return nil
}

// RecordAll appends every issue in order, one Record call (and one insert)
// per issue. It stops at the first failing insert; issues recorded before it
// stay in the store.
func (s *Store) RecordAll(ctx context.Context, issues []Issue) error {
	for _, issue := range issues {
		if err := s.Record(ctx, issue); err != nil {
			return err
		}
	}
	return nil
}

// ByRun returns every issue recorded for runID, oldest first.
func (s *Store) ByRun(ctx context.Context, runID string) ([]Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, run_id, step_id, severity, message, path, timestamp FROM issues WHERE run_id = ? ORDER BY id", runID)
	if err != nil {
		return nil, fmt.Errorf("auditstore: query: %w", err)
	}
	defer rows.Close()
	return scanIssues(rows)
}

// Recent returns the most recent n issues across all runs.
func (s *Store) Recent(ctx context.Context, n int) ([]Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, run_id, step_id, severity, message, path, timestamp FROM issues ORDER BY id DESC LIMIT ?", n)
	if err != nil {
		return nil, fmt.Errorf("auditstore: query: %w", err)
	}
	defer rows.Close()
	return scanIssues(rows)
}

func scanIssues(rows *sql.Rows) ([]Issue, error) {
	var out []Issue
	for rows.Next() {
		var issue Issue
		var ts int64
		var path sql.NullString
		if err := rows.Scan(&issue.ID, &issue.RunID, &issue.StepID, &issue.Severity, &issue.Message, &path, &ts); err != nil {
			return nil, fmt.Errorf("auditstore: scan: %w", err)
		}
		issue.Path = path.String
		issue.Timestamp = time.Unix(ts, 0)
		out = append(out, issue)
	}
	return out, rows.Err()
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// MarshalBaseline renders a run's issues as the JSON baseline document
// format spec §6 describes, so a Store can stand in for (or alongside) the
// plain baseline file.
func MarshalBaseline(issues []Issue) ([]byte, error) {
	type baselineEntry struct {
		StepID   string `json:"stepId"`
		Severity string `json:"severity"`
		Message  string `json:"message"`
		Path     string `json:"path,omitempty"`
	}
	entries := make([]baselineEntry, 0, len(issues))
	for _, i := range issues {
		entries = append(entries, baselineEntry{StepID: i.StepID, Severity: i.Severity, Message: i.Message, Path: i.Path})
	}
	return json.MarshalIndent(map[string]any{"issues": entries}, "", "  ")
}
