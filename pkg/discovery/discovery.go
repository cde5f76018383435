// Package discovery turns the machine-readable listing of a minitest host into
// CTest registration statements.
//
// The host binary is executed with --minitest-pri-impl-list-test-cases and a
// marker token. Everything it prints between the first two marker lines is the
// listing, one "index:name(file:line)" entry per line. The generated block is
// bracketed by "# <marker>" comment lines so that later runs can replace it
// without touching the rest of the file.
package discovery

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrMarkerNotFound is returned when the listing is not bracketed by two
// marker lines.
var ErrMarkerNotFound = errors.New("marker lines not found in listing")

// ErrEmptyMarker is returned when discovery is asked to use an empty marker.
var ErrEmptyMarker = errors.New("marker must not be empty")

// ParseError reports a listing line that is not "index:name(file:line)".
type ParseError struct {
	Line int
	Text string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse listing line %d: %q", e.Line, e.Text)
}

// Entry is one test case discovered in a host binary.
type Entry struct {
	Index int    `json:"index" yaml:"index" cbor:"1,keyasint"`
	Name  string `json:"name" yaml:"name" cbor:"2,keyasint"`
	File  string `json:"file" yaml:"file" cbor:"3,keyasint"`
	Line  int    `json:"line" yaml:"line" cbor:"4,keyasint"`
}

var entryPattern = regexp.MustCompile(`^\s*([0-9]+):(.+)\((.+):([0-9]+)\)$`)

// ParseListing extracts the entries printed between the first two lines equal
// to marker. Blank lines are ignored and backslashes in file paths are turned
// into forward slashes.
func ParseListing(output, marker string) ([]Entry, error) {
	if marker == "" {
		return nil, ErrEmptyMarker
	}
	lines := strings.Split(output, "\n")

	start := -1
	for i, line := range lines {
		if strings.TrimSpace(line) != marker {
			continue
		}
		if start < 0 {
			start = i
			continue
		}
		return parseLines(lines[start+1:i], start+1)
	}
	return nil, ErrMarkerNotFound
}

func parseLines(lines []string, offset int) ([]Entry, error) {
	entries := make([]Entry, 0, len(lines))
	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		m := entryPattern.FindStringSubmatch(line)
		if m == nil {
			return nil, &ParseError{Line: offset + i + 1, Text: line}
		}
		index, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, &ParseError{Line: offset + i + 1, Text: line}
		}
		lineNo, err := strconv.Atoi(m[4])
		if err != nil {
			return nil, &ParseError{Line: offset + i + 1, Text: line}
		}
		entries = append(entries, Entry{
			Index: index,
			Name:  m[2],
			File:  strings.ReplaceAll(m[3], `\`, "/"),
			Line:  lineNo,
		})
	}
	return entries, nil
}
