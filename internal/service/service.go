package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"

	"github.com/Atliac/minitest/internal/config"
	"github.com/Atliac/minitest/pkg/database"
	"github.com/Atliac/minitest/pkg/discovery"
	"github.com/Atliac/minitest/pkg/runner"
	"github.com/Atliac/minitest/pkg/storage"
)

// TestService coordinates discovery, export and out-of-process runs of
// minitest host binaries
type TestService struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
}

// NewTestService creates a new service instance
// The history database is opened on first use
func NewTestService(cfg *config.Config, logger *slog.Logger) *TestService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TestService{
		config: cfg,
		logger: logger,
	}
}

// Close closes the service and all resources
func (s *TestService) Close() error {
	if s.db != nil {
		return database.CloseDatabase(s.db)
	}
	return nil
}

func (s *TestService) database() (*sql.DB, error) {
	if s.db != nil {
		return s.db, nil
	}

	db, err := database.OpenDatabase(database.DatabaseOptions{
		Path:      s.config.Database.Path,
		EnableWAL: s.config.Database.EnableWAL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s.logger.Debug("Opened history database", "path", s.config.Database.Path)

	s.db = db
	return db, nil
}

// marker picks the explicit marker, then the configured one, then the one
// derived from the binary path
func (s *TestService) marker(binary, marker string) (string, error) {
	if marker != "" {
		return marker, nil
	}
	if s.config.Discovery.Marker != "" {
		return s.config.Discovery.Marker, nil
	}
	return discovery.DefaultMarker(binary)
}

// Discover lists the test cases of a host binary
func (s *TestService) Discover(ctx context.Context, binary, marker string) ([]discovery.Entry, error) {
	marker, err := s.marker(binary, marker)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Discovering test cases", "binary", binary, "marker", marker)
	entries, err := discovery.Discover(ctx, binary, marker, s.config.Discovery.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to discover test cases: %w", err)
	}
	return entries, nil
}

// ExportResult describes a written CTest file
type ExportResult struct {
	Path    string
	Marker  string
	Entries []discovery.Entry
}

// Export writes the CTest block of binary into output
// An empty output falls back to the configured file and then to the nearest
// CTestTestfile.cmake above the binary
func (s *TestService) Export(ctx context.Context, binary, output, marker string) (*ExportResult, error) {
	marker, err := s.marker(binary, marker)
	if err != nil {
		return nil, err
	}

	if output == "" {
		output = s.config.Discovery.Output
	}
	if output == "" {
		output, err = discovery.FindCTestFile(filepath.Dir(binary))
		if err != nil {
			return nil, err
		}
	}

	store, err := storage.NewLocalStorage(filepath.Dir(output))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	exporter := discovery.NewExporter(store, s.config.Discovery.Timeout, s.logger)
	entries, err := exporter.Export(ctx, binary, filepath.Base(output), marker)
	if err != nil {
		return nil, fmt.Errorf("failed to export test cases: %w", err)
	}

	return &ExportResult{
		Path:    output,
		Marker:  marker,
		Entries: entries,
	}, nil
}

// RunReport is the outcome of RunAll
type RunReport struct {
	Run     *database.Run
	Results []database.Result
}

// Failed returns the number of test cases that did not pass
func (r *RunReport) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome != runner.Passed.String() {
			n++
		}
	}
	return n
}

// RunAll runs every discovered test case whose name matches filter in its own
// process, in silent mode, and records the results
// onResult, if not nil, is called after each test case
func (s *TestService) RunAll(ctx context.Context, binary, filter string, onResult func(database.Result)) (*RunReport, error) {
	var re *regexp.Regexp
	if filter != "" {
		var err error
		re, err = regexp.Compile(filter)
		if err != nil {
			return nil, fmt.Errorf("invalid filter: %w", err)
		}
	}

	entries, err := s.Discover(ctx, binary, "")
	if err != nil {
		return nil, err
	}

	db, err := s.database()
	if err != nil {
		return nil, err
	}

	var filterPtr *string
	if filter != "" {
		filterPtr = &filter
	}
	abs, err := filepath.Abs(binary)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve binary: %w", err)
	}
	runID, err := database.InsertRun(db, abs, filterPtr)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Starting run", "run_id", runID, "binary", abs, "cases", len(entries))

	report := &RunReport{}
	passed, failed := 0, 0
	for _, entry := range entries {
		if re != nil && !re.MatchString(entry.Name) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result := s.runCase(ctx, binary, runID, entry)
		if _, err := database.InsertResult(db, result); err != nil {
			return nil, err
		}
		if result.Outcome == runner.Passed.String() {
			passed++
		} else {
			failed++
		}
		report.Results = append(report.Results, result)
		if onResult != nil {
			onResult(result)
		}
	}

	if err := database.FinishRun(db, runID, passed, failed); err != nil {
		return nil, err
	}
	report.Run, err = database.GetRun(db, runID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Finished run", "run_id", runID, "passed", passed, "failed", failed)
	return report, nil
}

func (s *TestService) runCase(ctx context.Context, binary string, runID int64, entry discovery.Entry) database.Result {
	result := database.Result{
		RunID:     runID,
		TestIndex: entry.Index,
		TestName:  entry.Name,
		File:      entry.File,
		Line:      entry.Line,
	}

	res, err := discovery.RunCase(ctx, binary, entry.Index, s.config.Run.Timeout)
	if err != nil {
		s.logger.Warn("Test case did not complete", "name", entry.Name, "error", err)
		result.Outcome = runner.Errored.String()
		result.ExitCode = -1
		result.Output = err.Error()
		return result
	}

	result.ExitCode = res.ExitCode
	result.Duration = res.Duration
	result.Output = res.Stdout + res.Stderr
	result.Outcome = classify(res.ExitCode).String()

	s.logger.Debug("Test case finished", "name", entry.Name, "outcome", result.Outcome, "duration", res.Duration)
	return result
}

// classify maps a host exit code to an outcome
// Anything other than the two minitest codes means the host crashed
func classify(exitCode int) runner.Outcome {
	switch exitCode {
	case runner.Success:
		return runner.Passed
	case runner.Failure:
		return runner.Failed
	default:
		return runner.Errored
	}
}

// History returns recorded results of a test case, newest first
func (s *TestService) History(test string, limit int) ([]database.Result, error) {
	db, err := s.database()
	if err != nil {
		return nil, err
	}
	return database.FindResultsByTest(db, test, limit)
}

// Runs returns recorded runs, newest first
func (s *TestService) Runs(limit int) ([]database.Run, error) {
	db, err := s.database()
	if err != nil {
		return nil, err
	}
	return database.ListRuns(db, limit)
}

// RunResults returns the results of a recorded run
func (s *TestService) RunResults(runID int64) ([]database.Result, error) {
	db, err := s.database()
	if err != nil {
		return nil, err
	}
	return database.FindResultsByRun(db, runID)
}
