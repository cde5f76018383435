package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Result is the recorded outcome of one test case in a run
type Result struct {
	ResultID  int64         `json:"result_id,omitempty"`
	RunID     int64         `json:"run_id"`
	TestIndex int           `json:"test_index"`
	TestName  string        `json:"test_name"`
	File      string        `json:"file"`
	Line      int           `json:"line"`
	Outcome   string        `json:"outcome"`
	ExitCode  int           `json:"exit_code"`
	Duration  time.Duration `json:"duration"`
	Output    string        `json:"output,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// InsertResult records the outcome of a test case
// Returns the auto-generated result ID
func InsertResult(db *sql.DB, result Result) (int64, error) {
	stmt, err := db.Prepare(`
		INSERT INTO results (
			run_id, test_index, test_name, file, line,
			outcome, exit_code, duration_ms, output
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert result: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(
		result.RunID,
		result.TestIndex,
		result.TestName,
		result.File,
		result.Line,
		result.Outcome,
		result.ExitCode,
		result.Duration.Milliseconds(),
		result.Output,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert result: %w", err)
	}

	resultID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	return resultID, nil
}

// FindResultsByRun returns the results of a run in test index order
func FindResultsByRun(db *sql.DB, runID int64) ([]Result, error) {
	rows, err := db.Query(`
		SELECT result_id, run_id, test_index, test_name, file, line,
		       outcome, exit_code, duration_ms, output, created_at
		FROM results WHERE run_id = ? ORDER BY test_index
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results by run: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// FindResultsByTest returns the most recent results of a test case first
func FindResultsByTest(db *sql.DB, testName string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := db.Query(`
		SELECT result_id, run_id, test_index, test_name, file, line,
		       outcome, exit_code, duration_ms, output, created_at
		FROM results WHERE test_name = ? ORDER BY result_id DESC LIMIT ?
	`, testName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query results by test: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// scanResults is a helper function to scan multiple result rows
func scanResults(rows *sql.Rows) ([]Result, error) {
	var results []Result

	for rows.Next() {
		var result Result
		var file, output sql.NullString
		var line sql.NullInt64
		var durationMs int64
		err := rows.Scan(
			&result.ResultID,
			&result.RunID,
			&result.TestIndex,
			&result.TestName,
			&file,
			&line,
			&result.Outcome,
			&result.ExitCode,
			&durationMs,
			&output,
			&result.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		result.File = file.String
		result.Line = int(line.Int64)
		result.Output = output.String
		result.Duration = time.Duration(durationMs) * time.Millisecond
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating result rows: %w", err)
	}

	return results, nil
}
