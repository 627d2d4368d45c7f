package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// migrations are applied in order; the database's user_version counts how
// many have run.
var migrations = []string{
	// 1: tasks and settings
	`
	CREATE TABLE IF NOT EXISTS tasks (
		id          TEXT PRIMARY KEY,
		text        TEXT NOT NULL,
		project     TEXT NOT NULL DEFAULT 'General',
		section     TEXT NOT NULL DEFAULT '',
		date        TEXT NOT NULL,
		deadline    TEXT,
		note        TEXT NOT NULL DEFAULT '',
		done        INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		updated_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO settings (key, value) VALUES
		('autoscreen_enabled',  'true'),
		('autoscreen_interval', '15');
	`,
	// 2: task list preferences
	`
	CREATE INDEX IF NOT EXISTS idx_tasks_done ON tasks(done, date);

	INSERT OR IGNORE INTO settings (key, value) VALUES
		('default_project', 'General'),
		('hide_done',       'true');
	`,
}

type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and brings its schema
// up to date.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, p := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	slog.Debug("task store opened", "path", dbPath)
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) version() (int, error) {
	var v int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read user_version: %w", err)
	}
	return v, nil
}

func (s *Store) migrate() error {
	from, err := s.version()
	if err != nil {
		return err
	}
	for v := from; v < len(migrations); v++ {
		if err := s.apply(v+1, migrations[v]); err != nil {
			return err
		}
		slog.Debug("task store migrated", "version", v+1)
	}
	return nil
}

func (s *Store) apply(version int, ddl string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(ddl); err != nil {
		return fmt.Errorf("migration %d: %w", version, err)
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return fmt.Errorf("migration %d: set user_version: %w", version, err)
	}
	return tx.Commit()
}

// DefaultDBPath returns <user data dir>/tasktimer/tasks.db.
func DefaultDBPath() (string, error) {
	dir, err := DefaultDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "tasks.db"), nil
}

// DefaultDataDir is $XDG_DATA_HOME/tasktimer, falling back to
// ~/.local/share/tasktimer.
func DefaultDataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "tasktimer"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "tasktimer"), nil
}
