package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS list_snapshots (
    key TEXT PRIMARY KEY,
    payload BLOB NOT NULL,
    hash TEXT NOT NULL,
    saved_at DATETIME NOT NULL
);`

const memoryPath = ":memory:"

var ErrNotOpen = errors.New("database not initialized")

type SQLite struct {
	path string
	conn *sql.DB
}

// NewSQLite returns a database stored at path. ":memory:" keeps it in memory.
func NewSQLite(path string) *SQLite {
	return &SQLite{path: path}
}

// dsn adds a busy timeout and WAL journaling for file databases, so two consoles sharing
// one snapshot file wait for each other instead of failing with SQLITE_BUSY.
func (s *SQLite) dsn() string {
	if s.path == memoryPath {
		return s.path
	}
	return "file:" + s.path + "?_busy_timeout=5000&_journal_mode=WAL"
}

func (s *SQLite) InitDb() error {
	conn, err := sql.Open("sqlite3", s.dsn())
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	// An in-memory database lives as long as its connection.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return fmt.Errorf("create schema in %s: %w", s.path, err)
	}

	s.conn = conn
	dbLogger.Debug().Str("path", s.path).Msg("Snapshot database ready")
	return nil
}

func (s *SQLite) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

func (s *SQLite) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if s.conn == nil {
		return nil, ErrNotOpen
	}
	dbLogger.Trace().Str("query", query).Msg("Query")
	return s.conn.QueryContext(ctx, query, args...)
}

// QueryRowContext panics when the database was never initialized, like a nil *sql.DB would.
func (s *SQLite) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	dbLogger.Trace().Str("query", query).Msg("QueryRow")
	return s.conn.QueryRowContext(ctx, query, args...)
}

func (s *SQLite) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if s.conn == nil {
		return nil, ErrNotOpen
	}
	dbLogger.Trace().Str("query", query).Msg("Exec")
	return s.conn.ExecContext(ctx, query, args...)
}

func (s *SQLite) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if s.conn == nil {
		return ErrNotOpen
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			dbLogger.Warn().Err(rbErr).Msg("Rollback failed")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
