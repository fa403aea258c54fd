// Package store provides the durable SQLite-backed file catalog the server
// and indexer share.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Store provides SQLite-backed storage for the file catalog.
type Store struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
}

// Open opens or creates a SQLite database at the given path and applies
// pending migrations. If the path is empty, it defaults to
// ~/.config/timelane/catalog.db.
func Open(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		path = filepath.Join(home, ".config", "timelane", "catalog.db")
	}

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	// Open with WAL mode and other optimizations
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrations are applied in order; user_version tracks progress.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS file_items (
		id            TEXT PRIMARY KEY,
		abs_path      TEXT NOT NULL UNIQUE,
		name          TEXT NOT NULL,
		ext           TEXT NOT NULL DEFAULT '',
		mime          TEXT NOT NULL DEFAULT '',
		kind          TEXT NOT NULL DEFAULT 'other',
		size          INTEGER NOT NULL DEFAULT 0,
		created_at    TIMESTAMP,
		hash          TEXT NOT NULL DEFAULT '',
		has_preview   INTEGER NOT NULL DEFAULT 0,
		has_thumbnail INTEGER NOT NULL DEFAULT 0,
		added_at      TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_file_items_created ON file_items(created_at);
	CREATE INDEX IF NOT EXISTS idx_file_items_ext ON file_items(ext);
	CREATE INDEX IF NOT EXISTS idx_file_items_hash ON file_items(hash);`,
}

func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for i := version; i < len(migrations); i++ {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", i+1, err)
		}
		if _, err := tx.Exec(migrations[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", i+1, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("bump schema version to %d: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", i+1, err)
		}
	}
	return nil
}
