package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database that keeps the client usable offline.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite cache database and runs migrations.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return setup(db)
}

// OpenMemory opens a cache that lives only as long as the process. It backs
// the client when the cache directory is not writable.
func OpenMemory() (*DB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return setup(db)
}

func setup(db *sql.DB) (*DB, error) {
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func migrate(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS posts (
			id INTEGER PRIMARY KEY,
			category TEXT NOT NULL,
			position INTEGER NOT NULL,
			payload TEXT NOT NULL,
			fetched_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_position ON posts(position)`,

		`CREATE TABLE IF NOT EXISTS bots (
			id INTEGER PRIMARY KEY,
			position INTEGER NOT NULL,
			payload TEXT NOT NULL,
			fetched_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS list_fetches (
			list_type TEXT PRIMARY KEY,
			fetched_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS activity_logs (
			id INTEGER PRIMARY KEY,
			bot_id INTEGER NOT NULL,
			job_id INTEGER NOT NULL,
			job_type TEXT NOT NULL,
			result_status TEXT NOT NULL,
			message TEXT NOT NULL,
			executed_at INTEGER NOT NULL,
			received_at INTEGER NOT NULL,
			read INTEGER DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_read ON activity_logs(read)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_executed ON activity_logs(executed_at)`,

		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("executing migration: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
