// Package registry holds the process-wide set of test cases.
//
// Test cases are registered during package initialization, usually through
// minitest.Case, and are immutable afterwards. Iteration and index-based
// selection always follow the lexicographic order of the names, never the
// order in which packages happened to register them.
package registry

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"slices"

	"github.com/Atliac/minitest/pkg/check"
)

var (
	// ErrEmptyName is returned when a test case is registered without a name.
	ErrEmptyName = errors.New("test case name should not be empty")
	// ErrNilFunc is returned when a test case has no function.
	ErrNilFunc = errors.New("test case function should not be nil")
)

// DuplicateError reports a second registration of an existing name.
type DuplicateError struct {
	Name     string
	First    string
	Conflict string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s has been registered at\n%s, failed to register at\n%s.", e.Name, e.First, e.Conflict)
}

// TestFunc is the body of a test case.
type TestFunc func(*check.T)

// TestCase is a registered test.
type TestCase struct {
	Name     string
	Func     TestFunc
	Location string
}

// Registry maps test names to test cases.
type Registry struct {
	cases map[string]*TestCase
	names []string // sorted
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{cases: make(map[string]*TestCase)}
}

var defaultRegistry *Registry // built on first use

// Default returns the registry shared by the whole process. It may be called
// from any package initializer.
func Default() *Registry {
	if defaultRegistry == nil {
		defaultRegistry = New()
	}
	return defaultRegistry
}

// exit terminates the process after a registration error.
var exit = os.Exit

// Add inserts a test case.
func (r *Registry) Add(name string, fn TestFunc, location string) error {
	if name == "" {
		return fmt.Errorf("%w.%s", ErrEmptyName, location)
	}
	if fn == nil {
		return fmt.Errorf("%w: %s (%s)", ErrNilFunc, name, location)
	}
	if existing, ok := r.cases[name]; ok {
		return &DuplicateError{Name: name, First: existing.Location, Conflict: location}
	}

	slog.Debug("Registering test case.", "name", name, "location", location)
	r.cases[name] = &TestCase{Name: name, Func: fn, Location: location}
	i, _ := slices.BinarySearch(r.names, name)
	r.names = slices.Insert(r.names, i, name)
	return nil
}

// Register inserts a test case and terminates the process with status 1 if
// the registration is invalid. A bad registration is an authoring mistake and
// must never reach a test run.
func (r *Registry) Register(name string, fn TestFunc, location string) {
	if err := r.Add(name, fn, location); err != nil {
		fmt.Println("minitest: failed to register test case.")
		fmt.Println(err)
		exit(1)
	}
}

// Lookup returns the test case with the given name.
func (r *Registry) Lookup(name string) (*TestCase, bool) {
	tc, ok := r.cases[name]
	return tc, ok
}

// Nth returns the test case at position index in sorted-name order.
func (r *Registry) Nth(index int) (*TestCase, bool) {
	if index < 0 || index >= len(r.names) {
		return nil, false
	}
	return r.cases[r.names[index]], true
}

// IndexOf returns the sorted position of name.
func (r *Registry) IndexOf(name string) (int, bool) {
	if _, ok := r.cases[name]; !ok {
		return 0, false
	}
	i, _ := slices.BinarySearch(r.names, name)
	return i, true
}

// Size returns the number of registered test cases.
func (r *Registry) Size() int {
	return len(r.names)
}

// All yields index and test case pairs in sorted-name order.
func (r *Registry) All() iter.Seq2[int, *TestCase] {
	return func(yield func(int, *TestCase) bool) {
		for i, name := range r.names {
			if !yield(i, r.cases[name]) {
				return
			}
		}
	}
}
