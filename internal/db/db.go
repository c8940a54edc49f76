// Package db opens the local SQLite database the console keeps its cache snapshots in.
package db

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"
)

// Db is the connection the snapshot store works against. Every call takes the caller's
// context so a cancelled command does not wait on the disk.
type Db interface {
	InitDb() error
	Close() error

	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)

	// InTx runs fn in a transaction, committing when it returns nil.
	InTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

var dbLogger zerolog.Logger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	dbLogger = l
}
