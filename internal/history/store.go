// Package history records finished submissions in a local SQLite database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	perrors "github.com/Aman-CERP/indexpanel/internal/errors"
	"github.com/Aman-CERP/indexpanel/internal/workflow"
)

// DefaultMaxEntries bounds the table; older rows are pruned on insert.
const DefaultMaxEntries = 1000

const schemaSQL = `
CREATE TABLE IF NOT EXISTS submissions (
	id          TEXT PRIMARY KEY,
	schema_name TEXT NOT NULL,
	index_name  TEXT NOT NULL,
	phase       TEXT NOT NULL,
	count       INTEGER NOT NULL DEFAULT 0,
	message     TEXT NOT NULL,
	error_code  TEXT NOT NULL DEFAULT '',
	started_at  INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_submissions_started ON submissions(started_at DESC);
`

// Entry is one recorded submission.
type Entry struct {
	ID        string        `json:"id"`
	Schema    string        `json:"schema"`
	Index     string        `json:"index"`
	Phase     string        `json:"phase"`
	Count     int64         `json:"count"`
	Message   string        `json:"message"`
	ErrorCode string        `json:"error_code,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
}

// Store is a SQLite-backed workflow.Recorder.
type Store struct {
	db         *sql.DB
	path       string
	maxEntries int

	closeOnce sync.Once
	closeErr  error
}

var _ workflow.Recorder = (*Store)(nil)

// Open opens or creates the history database at path.
// maxEntries <= 0 uses DefaultMaxEntries.
func Open(path string, maxEntries int) (*Store, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// Single writer to prevent lock contention
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}

	return &Store{db: db, path: path, maxEntries: maxEntries}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Record implements workflow.Recorder.
func (s *Store) Record(ctx context.Context, outcome workflow.Outcome) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO submissions
			(id, schema_name, index_name, phase, count, message, error_code, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		outcome.ID,
		outcome.Selection.Schema,
		outcome.Selection.Index,
		outcome.State.Phase.String(),
		outcome.Count,
		outcome.State.Message,
		perrors.GetCode(outcome.Err),
		outcome.StartedAt.UnixMilli(),
		outcome.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		DELETE FROM submissions WHERE id NOT IN (
			SELECT id FROM submissions ORDER BY started_at DESC, rowid DESC LIMIT ?
		)
	`, s.maxEntries)
	if err != nil {
		return fmt.Errorf("prune submissions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	if n, _ := res.RowsAffected(); n > 0 {
		slog.Debug("history_pruned", slog.Int64("rows", n))
	}
	return nil
}

// List returns up to limit entries, newest first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, schema_name, index_name, phase, count, message, error_code, started_at, duration_ms
		FROM submissions
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			startedMS  int64
			durationMS int64
		)
		if err := rows.Scan(&e.ID, &e.Schema, &e.Index, &e.Phase, &e.Count, &e.Message,
			&e.ErrorCode, &startedMS, &durationMS); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		e.StartedAt = time.UnixMilli(startedMS)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of recorded submissions.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM submissions").Scan(&n); err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return n, nil
}

// Clear removes every entry.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM submissions"); err != nil {
		return fmt.Errorf("clear submissions: %w", err)
	}
	return nil
}

// Close closes the database. Safe to call multiple times.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}
