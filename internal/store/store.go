package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store keeps the history of fix runs.
type Store struct {
	db *sql.DB
}

// DefaultPath is used when neither NEURA_DB_PATH nor store.path is set.
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".neura", "neura.db")
}

func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			model TEXT NOT NULL,
			root TEXT NOT NULL,
			dry_run INTEGER NOT NULL DEFAULT 0,
			initial INTEGER NOT NULL,
			resolved INTEGER NOT NULL,
			remaining INTEGER NOT NULL,
			still_failing INTEGER NOT NULL,
			time_saved_seconds INTEGER NOT NULL,
			cost_savings REAL NOT NULL,
			generation_cost REAL NOT NULL,
			net_benefit REAL NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS attempts (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			fingerprint TEXT NOT NULL,
			file TEXT NOT NULL,
			message TEXT NOT NULL,
			status TEXT NOT NULL,
			applied INTEGER NOT NULL,
			invalid INTEGER NOT NULL,
			effort_seconds INTEGER NOT NULL,
			prompt_tokens INTEGER NOT NULL,
			response_tokens INTEGER NOT NULL,
			cost REAL NOT NULL,
			resolved INTEGER NOT NULL,
			error TEXT,
			diff TEXT,
			PRIMARY KEY (run_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS runs_started_at ON runs(started_at);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to migrate db: %w", err)
		}
	}
	return nil
}
