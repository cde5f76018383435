// Package database provides SQLite storage for minitest run history
package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SchemaVersion is the version recorded in schema_version
const SchemaVersion = "1.0.0"

// DatabaseOptions holds configuration for opening a database
type DatabaseOptions struct {
	Path        string
	EnableWAL   bool
	BusyTimeout int // milliseconds
}

// OpenDatabase opens a SQLite database connection with the specified options
// and initializes the schema if needed
func OpenDatabase(options DatabaseOptions) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", options.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if options.EnableWAL {
		if err := enableWAL(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL: %w", err)
		}
	}

	if options.BusyTimeout > 0 {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", options.BusyTimeout)); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set busy timeout: %w", err)
		}
	}

	return db, nil
}

// initializeSchema creates all tables and indexes
func initializeSchema(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	var currentVersion sql.NullString
	err := db.QueryRow("SELECT version FROM schema_version ORDER BY applied_at DESC LIMIT 1").Scan(&currentVersion)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to check schema version: %w", err)
	}

	if currentVersion.Valid && currentVersion.String == SchemaVersion {
		return nil
	}

	// Runs table: one row per out-of-process run of a host binary
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id INTEGER PRIMARY KEY AUTOINCREMENT,
			binary TEXT NOT NULL,
			filter TEXT,

			started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			finished_at TIMESTAMP,

			total INTEGER NOT NULL DEFAULT 0,
			passed INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0
		)
	`); err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}

	// Results table: outcome of every test case executed in a run
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS results (
			result_id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL,

			test_index INTEGER NOT NULL,
			test_name TEXT NOT NULL,
			file TEXT,
			line INTEGER,

			outcome TEXT NOT NULL,
			exit_code INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			output TEXT,

			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,

			FOREIGN KEY (run_id) REFERENCES runs(run_id)
		)
	`); err != nil {
		return fmt.Errorf("failed to create results table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_results_run ON results(run_id)",
		"CREATE INDEX IF NOT EXISTS idx_results_test_name ON results(test_name)",
		"CREATE INDEX IF NOT EXISTS idx_runs_binary ON runs(binary)",
	}

	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", SchemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	return nil
}

// enableWAL enables Write-Ahead Logging mode
func enableWAL(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	return nil
}

// CloseDatabase closes the database connection
func CloseDatabase(db *sql.DB) error {
	return db.Close()
}
