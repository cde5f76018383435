package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Run is one out-of-process run of a host binary
type Run struct {
	RunID      int64      `json:"run_id"`
	Binary     string     `json:"binary"`
	Filter     *string    `json:"filter,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Total      int        `json:"total"`
	Passed     int        `json:"passed"`
	Failed     int        `json:"failed"`
}

// Finished reports whether FinishRun was called for the run
func (r *Run) Finished() bool {
	return r.FinishedAt != nil
}

// InsertRun records the start of a run and returns its ID
func InsertRun(db *sql.DB, binary string, filter *string) (int64, error) {
	result, err := db.Exec("INSERT INTO runs (binary, filter) VALUES (?, ?)", binary, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	return runID, nil
}

// FinishRun stores the totals of a run and marks it finished
func FinishRun(db *sql.DB, runID int64, passed, failed int) error {
	result, err := db.Exec(`
		UPDATE runs
		SET finished_at = CURRENT_TIMESTAMP, total = ?, passed = ?, failed = ?
		WHERE run_id = ?
	`, passed+failed, passed, failed, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check finished run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %d not found", runID)
	}

	return nil
}

// GetRun retrieves a run by ID
// Returns nil if the run does not exist
func GetRun(db *sql.DB, runID int64) (*Run, error) {
	rows, err := db.Query(`
		SELECT run_id, binary, filter, started_at, finished_at, total, passed, failed
		FROM runs WHERE run_id = ?
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	defer rows.Close()

	runs, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}

	return &runs[0], nil
}

// ListRuns returns the most recent runs first
func ListRuns(db *sql.DB, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := db.Query(`
		SELECT run_id, binary, filter, started_at, finished_at, total, passed, failed
		FROM runs ORDER BY run_id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// scanRuns is a helper function to scan multiple run rows
func scanRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run

	for rows.Next() {
		var run Run
		var filter sql.NullString
		var finished sql.NullTime
		err := rows.Scan(
			&run.RunID,
			&run.Binary,
			&filter,
			&run.StartedAt,
			&finished,
			&run.Total,
			&run.Passed,
			&run.Failed,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if filter.Valid {
			run.Filter = &filter.String
		}
		if finished.Valid {
			run.FinishedAt = &finished.Time
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}

	return runs, nil
}
