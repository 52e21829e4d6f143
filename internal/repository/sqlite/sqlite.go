package sqlite

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database connection with thread-safe access. Dispatch
// workers upsert concurrently, so writes serialize on the mutex on top of
// SQLite's own WAL locking.
type DB struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// New creates and initializes a new SQLite database connection.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// migrate creates the necessary tables if they don't exist.
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS frame_metadata (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		source_id TEXT NOT NULL,
		blur_variance REAL NOT NULL DEFAULT 0,
		illumination_mean REAL NOT NULL DEFAULT 0,
		was_enhanced INTEGER NOT NULL DEFAULT 0,
		word_count INTEGER NOT NULL DEFAULT 0,
		text TEXT NOT NULL DEFAULT '',
		confidence REAL NOT NULL DEFAULT 0,
		raw_word_count INTEGER NOT NULL DEFAULT 0,
		raw_text TEXT NOT NULL DEFAULT '',
		raw_confidence REAL NOT NULL DEFAULT 0,
		extra_metrics TEXT NOT NULL DEFAULT '{}',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_id, timestamp)
	);

	CREATE TABLE IF NOT EXISTS analytics_summaries (
		source_id TEXT PRIMARY KEY,
		window_start DATETIME NOT NULL,
		frame_count INTEGER NOT NULL DEFAULT 0,
		avg_blur_variance REAL NOT NULL DEFAULT 0,
		avg_illumination REAL NOT NULL DEFAULT 0,
		avg_confidence REAL NOT NULL DEFAULT 0,
		avg_raw_confidence REAL NOT NULL DEFAULT 0,
		avg_accuracy_improvement REAL NOT NULL DEFAULT 0,
		enhanced_count INTEGER NOT NULL DEFAULT 0,
		computed_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_frame_metadata_source ON frame_metadata(source_id);
	CREATE INDEX IF NOT EXISTS idx_frame_metadata_timestamp ON frame_metadata(timestamp);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection for use by repositories.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Lock acquires a write lock.
func (db *DB) Lock() {
	db.mu.Lock()
}

// Unlock releases the write lock.
func (db *DB) Unlock() {
	db.mu.Unlock()
}

// RLock acquires a read lock.
func (db *DB) RLock() {
	db.mu.RLock()
}

// RUnlock releases the read lock.
func (db *DB) RUnlock() {
	db.mu.RUnlock()
}
