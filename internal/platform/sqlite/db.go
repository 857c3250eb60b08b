package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/pholn/mnemo/internal/platform/logger"
	"github.com/pholn/mnemo/internal/store"
)

// Open opens (creating if necessary) the SQLite database at path and applies
// the pragmas the engine depends on. The parent directory is created when
// missing. The returned pool is capped at a single connection.
func Open(ctx context.Context, path string) (*sqlx.DB, error) {
	log := logger.FromContext(ctx)

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("pragma %q: %w", p, err)
		}
	}

	// SQLite allows a single writer; one connection avoids lock contention
	// between pool members.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	log.Debug("sqlite database opened", slog.String("path", path))
	return db, nil
}

// EnsureSchema creates any missing tables and indexes. It is idempotent, so
// callers run it on every startup.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	log := logger.FromContext(ctx)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("applying sqlite schema: %w", err)
	}

	log.Debug("sqlite schema ensured")
	return nil
}

// runInTx executes fn inside a transaction, committing on nil and rolling
// back on error or panic. With the single-connection pool, the transaction
// holds the only connection, so fn must issue every statement through tx.
func runInTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	log := logger.FromContext(ctx)

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction",
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %v", store.ErrTransactionFailed, err)
	}

	defer func() {
		if p := recover(); p != nil {
			if txErr := tx.Rollback(); txErr != nil && !errors.Is(txErr, sql.ErrTxDone) {
				log.Error("failed to roll back transaction after panic",
					slog.String("error", txErr.Error()),
					slog.Any("panic", p))
			}
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			log.Error("failed to roll back transaction",
				slog.String("rollback_error", rollbackErr.Error()),
				slog.String("original_error", err.Error()))
			return fmt.Errorf(
				"error rolling back transaction: %v (original error: %w)",
				rollbackErr,
				err,
			)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit transaction",
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: commit: %v", store.ErrTransactionFailed, err)
	}

	return nil
}
