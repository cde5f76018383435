// Package check provides the invocation context handed to every test function
// together with the hard ("assert") and soft ("expect") checks that operate on it.
//
// A hard check that fails prints a diagnostic and aborts the rest of the test
// body. A soft check that fails prints the same diagnostic, records the failure
// in the context's expectation latch and lets the body continue; the runner
// turns a set latch into a failed result once the body returns.
package check

import (
	"fmt"
	"runtime"
	"strings"
)

// T is the state of a single test invocation.
type T struct {
	name   string
	silent bool
	out    *Printer
	failed bool
}

// New returns the context for one invocation of the named test.
func New(name string, silent bool, out *Printer) *T {
	return &T{name: name, silent: silent, out: out}
}

// Name returns the name of the running test case.
func (t *T) Name() string { return t.name }

// Silent reports whether the runner invoked the test in silent mode.
func (t *T) Silent() bool { return t.silent }

// SignalFailure sets the expectation latch without interrupting the test body.
func (t *T) SignalFailure() { t.failed = true }

// CheckAndReset returns the expectation latch and clears it.
func (t *T) CheckAndReset() bool {
	failed := t.failed
	t.failed = false
	return failed
}

// abort is the panic value used to unwind a test body after a hard failure.
type abort struct{}

func (abort) String() string { return "minitest assertion failure" }

// IsAbort reports whether v is the value raised by a failed hard check.
func IsAbort(v any) bool {
	_, ok := v.(abort)
	return ok
}

// Caller returns "file:line" of the function skip frames above the caller of
// Caller.
func Caller(skip int) string {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return "unknown:0"
	}
	return fmt.Sprintf("%s:%d", file, line)
}

// fail reports a failed check and then either aborts the body or sets the latch.
func (t *T) fail(hard bool, headline, location string, msg []any) {
	t.report(headline, location, msg)
	if hard {
		panic(abort{})
	}
	t.SignalFailure()
}

func (t *T) report(headline, location string, msg []any) {
	var b strings.Builder
	b.WriteString(headline)
	b.WriteByte('\n')
	if len(msg) > 0 {
		b.WriteString("Custom message: ")
		b.WriteString(concat(msg))
		b.WriteByte('\n')
	}
	b.WriteString(location)
	b.WriteString("\n\n")
	t.out.Print(b.String())
}

// concat prints every value back to back with no separator.
func concat(msg []any) string {
	var b strings.Builder
	for _, m := range msg {
		fmt.Fprint(&b, m)
	}
	return b.String()
}
