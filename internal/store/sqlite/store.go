// Package sqlite implements the store interface on SQLite via
// modernc.org/sqlite. It exists for deployments that want a single
// inspectable database file instead of a Badger directory; behavior is
// identical to the Badger backend.
package sqlite

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/danieljanata/ComfyUI-Prompting-System/internal/store"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

var _ store.Store = (*Store)(nil)

// Store is the SQLite-backed implementation of store.Store.
type Store struct {
	db      *sql.DB
	logger  *slog.Logger
	emitter store.EventEmitter

	// Serializes multi-statement write transactions. SQLite has a
	// single writer anyway; taking the lock up front avoids SQLITE_BUSY
	// churn on the read-modify-write paths.
	writeMu sync.Mutex
}

// Open creates a SQLite store at the given path. It configures WAL
// mode, sets pragmas, and runs the schema migration.
func Open(path string, logger *slog.Logger, emitter store.EventEmitter) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, store.ErrUnavailable.WithCause(fmt.Errorf("open sqlite: %w", err))
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, store.ErrUnavailable.WithCause(fmt.Errorf("exec pragma %q: %w", pragma, err))
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, store.ErrUnavailable.WithCause(fmt.Errorf("exec schema: %w", err))
	}

	if emitter == nil {
		emitter = store.NewNoopEmitter()
	}

	s := &Store{
		db:      db,
		logger:  logger,
		emitter: emitter,
	}

	if logger != nil {
		logger.Info("sqlite database opened", "path", path)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// formatTime formats a time.Time to RFC3339Nano for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses a RFC3339Nano string back to time.Time.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
