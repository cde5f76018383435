package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/Atliac/minitest/pkg/storage"
)

// Exporter writes CTest blocks for host binaries into a store.
type Exporter struct {
	store   storage.Storage
	timeout time.Duration
	logger  *slog.Logger
}

// NewExporter creates an exporter. timeout bounds each listing subprocess;
// zero disables the limit.
func NewExporter(store storage.Storage, timeout time.Duration, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{store: store, timeout: timeout, logger: logger}
}

// Discover lists and parses the test cases of binary.
func Discover(ctx context.Context, binary, marker string, timeout time.Duration) ([]Entry, error) {
	output, err := ListCommand(ctx, binary, marker, timeout)
	if err != nil {
		return nil, err
	}
	entries, err := ParseListing(output, marker)
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing of %s: %w", binary, err)
	}
	return entries, nil
}

// Export discovers the test cases of binary and splices their block into the
// artifact stored at key. A missing artifact is created.
func (e *Exporter) Export(ctx context.Context, binary, key, marker string) ([]Entry, error) {
	binary, err := filepath.Abs(binary)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve binary: %w", err)
	}
	entries, err := Discover(ctx, binary, marker, e.timeout)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		e.logger.Warn("No test cases found", "binary", binary)
	}

	existing, err := e.store.Get(key)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	content := Splice(string(existing), marker, RenderBlock(binary, marker, entries))
	if err := e.store.Put(key, []byte(content)); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", key, err)
	}

	e.logger.Info("Exported test cases",
		"binary", binary,
		"key", key,
		"count", len(entries),
	)
	return entries, nil
}
