// Package audit persists a write-only log of dispatched tool calls for
// operational forensics. It is never consulted on the request path.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Invocation is one recorded dispatch.
type Invocation struct {
	ID       int64
	Tool     string
	Args     map[string]any
	OK       bool
	Detail   string // error text on failure, empty on success
	Duration time.Duration
	At       time.Time
}

// Store is a SQLite-backed invocation log.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection for SQLite.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{db: db, logger: logger}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	return store, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS invocations (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		tool        TEXT NOT NULL,
		args        TEXT,
		ok          INTEGER NOT NULL,
		detail      TEXT,
		duration_ms INTEGER DEFAULT 0,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_invocations_time ON invocations(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends one invocation to the log.
func (s *Store) Record(ctx context.Context, inv Invocation) error {
	argsJSON, _ := json.Marshal(inv.Args)
	if inv.At.IsZero() {
		inv.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO invocations (tool, args, ok, detail, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		inv.Tool, string(argsJSON), boolInt(inv.OK), inv.Detail,
		inv.Duration.Milliseconds(), inv.At,
	)
	if err != nil {
		return fmt.Errorf("record invocation: %w", err)
	}
	return nil
}

// Recent returns the most recent invocations, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Invocation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tool, args, ok, detail, duration_ms, created_at
		 FROM invocations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query invocations: %w", err)
	}
	defer rows.Close()

	var result []Invocation
	for rows.Next() {
		var inv Invocation
		var argsJSON string
		var ok int
		var durationMs int64
		if err := rows.Scan(&inv.ID, &inv.Tool, &argsJSON, &ok, &inv.Detail, &durationMs, &inv.At); err != nil {
			return nil, fmt.Errorf("scan invocation: %w", err)
		}
		inv.OK = ok != 0
		inv.Duration = time.Duration(durationMs) * time.Millisecond
		if argsJSON != "" {
			_ = json.Unmarshal([]byte(argsJSON), &inv.Args)
		}
		result = append(result, inv)
	}
	return result, rows.Err()
}

// Purge deletes invocations older than the retention window.
func (s *Store) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	res, err := s.db.ExecContext(ctx, `DELETE FROM invocations WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge invocations: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.logger.Debug("purged audit entries", "count", n)
	}
	return n, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
