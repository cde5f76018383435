package discovery

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Atliac/minitest/pkg/runner"
)

// CTestFile is the file CTest reads test registrations from.
const CTestFile = "CTestTestfile.cmake"

// DefaultMarker derives a marker token from the absolute path of binary, so
// repeated discovery of the same binary replaces its own block and nothing else.
func DefaultMarker(binary string) (string, error) {
	abs, err := filepath.Abs(binary)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", binary, err)
	}
	sum := sha256.Sum256([]byte(filepath.ToSlash(abs)))
	return "minitest-" + hex.EncodeToString(sum[:8]), nil
}

// RenderBlock renders the CTest statements for entries of binary, bracketed
// by marker comment lines. Without entries a placeholder test named
// <exe>_NO_TEST_CASE is registered so that CTest reports the empty binary.
func RenderBlock(binary, marker string, entries []Entry) string {
	exe := filepath.ToSlash(binary)
	markLine := "# " + marker + "\n"

	var b strings.Builder
	b.WriteString(markLine)
	if len(entries) == 0 {
		fmt.Fprintf(&b, "add_test(\"%s_NO_TEST_CASE\" \"%s\")\n", filepath.Base(binary), marker)
	}
	for _, e := range entries {
		fmt.Fprintf(&b, "add_test([====[%s]====] \"%s\" %s \"%d\")\n",
			e.Name, exe, runner.FlagPriImplRunNth, e.Index)
		fmt.Fprintf(&b, "set_tests_properties([====[%s]====] PROPERTIES _BACKTRACE_TRIPLES \"%s;%d;minitest_discover_tests\")\n",
			e.Name, e.File, e.Line)
	}
	b.WriteString(markLine)
	return b.String()
}

// Splice removes the block previously generated for marker from existing,
// drops any other line mentioning marker and appends block. Content that does
// not belong to marker is preserved in order. An empty marker matches
// nothing.
func Splice(existing, marker, block string) string {
	if marker == "" {
		return existing + block
	}
	markLine := "# " + marker
	lines := splitLines(existing)

	// Pair up marker lines; an unmatched trailing marker is only a stray line.
	var marks []int
	for i, line := range lines {
		if strings.TrimRight(line, "\r") == markLine {
			marks = append(marks, i)
		}
	}
	drop := make([]bool, len(lines))
	for i := 0; i+1 < len(marks); i += 2 {
		for j := marks[i]; j <= marks[i+1]; j++ {
			drop[j] = true
		}
	}

	var b strings.Builder
	for i, line := range lines {
		if drop[i] || strings.Contains(line, marker) {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString(block)
	return b.String()
}

// splitLines splits s into lines without their terminating newline. A missing
// newline at the end of s does not produce an extra empty line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

// FindCTestFile looks for CTestTestfile.cmake in start and its parents.
func FindCTestFile(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", start, err)
	}
	for {
		path := filepath.Join(dir, CTestFile)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("failed to find %s above %s: %w", CTestFile, start, os.ErrNotExist)
		}
		dir = parent
	}
}
