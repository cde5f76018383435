package database_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Atliac/minitest/pkg/database"
)

func TestOpenDatabase(t *testing.T) {
	t.Run("creates new database with schema", func(t *testing.T) {
		tmpDir := t.TempDir()
		dbPath := filepath.Join(tmpDir, "test.db")

		db, err := database.OpenDatabase(database.DatabaseOptions{
			Path:      dbPath,
			EnableWAL: true,
		})
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer database.CloseDatabase(db)

		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			t.Error("database file was not created")
		}

		var version string
		err = db.QueryRow("SELECT version FROM schema_version").Scan(&version)
		if err != nil {
			t.Fatalf("failed to query schema version: %v", err)
		}

		if version != database.SchemaVersion {
			t.Errorf("expected schema version %s, got %s", database.SchemaVersion, version)
		}
	})

	t.Run("opens existing database without reinitializing", func(t *testing.T) {
		tmpDir := t.TempDir()
		dbPath := filepath.Join(tmpDir, "test.db")

		db1, err := database.OpenDatabase(database.DatabaseOptions{
			Path:      dbPath,
			EnableWAL: true,
		})
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}

		runID, err := database.InsertRun(db1, "/build/bin/host", nil)
		if err != nil {
			t.Fatalf("failed to insert run: %v", err)
		}

		database.CloseDatabase(db1)

		db2, err := database.OpenDatabase(database.DatabaseOptions{
			Path:      dbPath,
			EnableWAL: true,
		})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer database.CloseDatabase(db2)

		run, err := database.GetRun(db2, runID)
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if run == nil || run.Binary != "/build/bin/host" {
			t.Errorf("expected persisted run, got %+v", run)
		}

		var versions int
		if err := db2.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&versions); err != nil {
			t.Fatalf("failed to count schema versions: %v", err)
		}
		if versions != 1 {
			t.Errorf("expected 1 schema version row, got %d", versions)
		}
	})

	t.Run("creates all required tables", func(t *testing.T) {
		tmpDir := t.TempDir()
		dbPath := filepath.Join(tmpDir, "test.db")

		db, err := database.OpenDatabase(database.DatabaseOptions{
			Path:      dbPath,
			EnableWAL: false,
		})
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer database.CloseDatabase(db)

		requiredTables := []string{
			"schema_version",
			"runs",
			"results",
		}

		for _, table := range requiredTables {
			var name string
			err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
			if err != nil {
				t.Errorf("table %s not found: %v", table, err)
			}
		}
	})

	t.Run("sets busy timeout when specified", func(t *testing.T) {
		tmpDir := t.TempDir()
		dbPath := filepath.Join(tmpDir, "test.db")

		db, err := database.OpenDatabase(database.DatabaseOptions{
			Path:        dbPath,
			EnableWAL:   false,
			BusyTimeout: 10000,
		})
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer database.CloseDatabase(db)

		var timeout int
		err = db.QueryRow("PRAGMA busy_timeout").Scan(&timeout)
		if err != nil {
			t.Fatalf("failed to query busy timeout: %v", err)
		}

		if timeout != 10000 {
			t.Errorf("expected busy timeout 10000, got %d", timeout)
		}
	})
}

func TestCloseDatabase(t *testing.T) {
	t.Run("closes database connection", func(t *testing.T) {
		tmpDir := t.TempDir()
		dbPath := filepath.Join(tmpDir, "test.db")

		db, err := database.OpenDatabase(database.DatabaseOptions{
			Path:      dbPath,
			EnableWAL: false,
		})
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}

		err = database.CloseDatabase(db)
		if err != nil {
			t.Errorf("failed to close database: %v", err)
		}

		var version string
		err = db.QueryRow("SELECT version FROM schema_version").Scan(&version)
		if err == nil {
			t.Error("expected error after closing database, but query succeeded")
		}
	})
}
