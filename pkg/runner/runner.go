// Package runner interprets the minitest command-line directives and executes
// test cases from a registry.
//
// The directive strings and the output of the list directives are consumed by
// build-system integrations and must stay stable.
package runner

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Atliac/minitest/pkg/check"
	"github.com/Atliac/minitest/pkg/registry"
)

// Exit codes returned by handled directives.
const (
	Success = 0
	Failure = 1
)

// Directives recognized by Dispatch.
const (
	FlagHelp           = "--minitest-help"
	FlagListTestCases  = "--minitest-list-test-cases"
	FlagRunTestCase    = "--minitest-run-test-case"
	FlagRunNthTestCase = "--minitest-run-nth-test-case"
	FlagPriImplList    = "--minitest-pri-impl-list-test-cases"
	FlagPriImplRunNth  = "--minitest-pri-impl-run-nth-test-case"
)

const flagHelpSingleDash = "-minitest-help"

// Result is the outcome of Dispatch. The zero value means no directive was
// recognized and the host program should carry on with its own logic.
type Result struct {
	Handled  bool
	ExitCode int
}

// Handled returns a result for a directive that was processed.
func Handled(code int) Result {
	return Result{Handled: true, ExitCode: code}
}

// PassThrough is returned when the arguments were not meant for minitest.
var PassThrough = Result{}

// Outcome classifies a single test invocation.
type Outcome int

const (
	Passed Outcome = iota
	Failed
	Errored
)

func (o Outcome) String() string {
	switch o {
	case Passed:
		return "passed"
	case Failed:
		return "failed"
	case Errored:
		return "errored"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// ExitCode maps an outcome to the process status.
func (o Outcome) ExitCode() int {
	if o == Passed {
		return Success
	}
	return Failure
}

// Runner dispatches directives against a registry.
type Runner struct {
	registry *registry.Registry
	out      *check.Printer
}

// New creates a runner writing all output to w.
func New(reg *registry.Registry, w io.Writer) *Runner {
	return &Runner{registry: reg, out: check.NewPrinter(w)}
}

// Dispatch scans args[1:] for a directive and handles the first one found.
// args[0] is the program name. Help is printed whenever it is seen and does not
// stop the scan.
func (r *Runner) Dispatch(args []string) Result {
	if len(args) < 1 || args[0] == "" {
		r.out.Println("minitest: failed to run test, invalid arguments.")
		return Handled(Failure)
	}
	exe := filepath.Base(args[0])

	helped := false
	for i := 1; i < len(args); i++ {
		switch args[i] {
		case FlagHelp, flagHelpSingleDash:
			r.help(exe)
			helped = true
			continue
		case FlagListTestCases:
			r.list(exe)
			return Handled(Success)
		}

		if !isArgDirective(args[i]) {
			continue
		}
		if i+1 >= len(args) {
			r.out.Printf("Error: %s requires an argument\n", args[i])
			return Handled(Failure)
		}
		arg := args[i+1]

		switch args[i] {
		case FlagPriImplList:
			r.machineList(arg)
			return Handled(Success)
		case FlagRunTestCase:
			return Handled(r.runByName(arg).ExitCode())
		case FlagRunNthTestCase:
			return r.runNth(arg, false)
		case FlagPriImplRunNth:
			return r.runNth(arg, true)
		}
	}

	if helped {
		return Handled(Success)
	}
	return PassThrough
}

func isArgDirective(s string) bool {
	switch s {
	case FlagPriImplList, FlagRunTestCase, FlagRunNthTestCase, FlagPriImplRunNth:
		return true
	}
	return false
}

func (r *Runner) header(exe string) string {
	n := r.registry.Size()
	plural := ""
	if n != 1 {
		plural = "s"
	}
	return fmt.Sprintf("minitest: %s has %d test case%s.", exe, n, plural)
}

func (r *Runner) help(exe string) {
	var b strings.Builder
	b.WriteString(r.header(exe))
	b.WriteString("\nUsage:\n")
	fmt.Fprintf(&b, "%s\n    Print this help message\n", FlagHelp)
	fmt.Fprintf(&b, "%s\n    List all test cases.\n", FlagListTestCases)
	fmt.Fprintf(&b, "%s <test_case_name>\n    Run the specified test case in non-silent mode.\n", FlagRunTestCase)
	fmt.Fprintf(&b, "%s <n>\n    Run the nth test case in non-silent mode.\n", FlagRunNthTestCase)
	r.out.Print(b.String())
}

func (r *Runner) list(exe string) {
	var b strings.Builder
	b.WriteString(r.header(exe))
	b.WriteByte('\n')
	width := len(strconv.Itoa(r.registry.Size()))
	for i, tc := range r.registry.All() {
		fmt.Fprintf(&b, "%*d:%s(%s)\n", width, i, tc.Name, tc.Location)
	}
	r.out.Print(b.String())
}

// machineList prints the listing between two marker lines so that a consumer
// can find it in output that may contain unrelated text.
func (r *Runner) machineList(marker string) {
	var b strings.Builder
	b.WriteString(marker)
	b.WriteByte('\n')
	for i, tc := range r.registry.All() {
		fmt.Fprintf(&b, "%d:%s(%s)\n", i, tc.Name, tc.Location)
	}
	b.WriteString(marker)
	b.WriteByte('\n')
	r.out.Print(b.String())
}

func (r *Runner) runByName(name string) Outcome {
	tc, ok := r.registry.Lookup(name)
	if !ok {
		r.out.Printf("Error: failed to find test case %s\n", name)
		return Failed
	}
	r.out.Printf("Running the test case: %s\n", name)
	return r.timed(tc)
}

func (r *Runner) runNth(arg string, silent bool) Result {
	n, err := strconv.Atoi(arg)
	if err != nil {
		r.out.Printf("Error: invalid test case index %q\n", arg)
		return Handled(Failure)
	}
	tc, ok := r.registry.Nth(n)
	if !ok {
		r.out.Printf("Error: the test case index should be in the range [0, %d)\n", r.registry.Size())
		return Handled(Failure)
	}
	if silent {
		return Handled(r.Invoke(tc, true).ExitCode())
	}
	r.out.Printf("Running the %dth test case: %s\n", n, tc.Name)
	return Handled(r.timed(tc).ExitCode())
}

// timed runs tc in non-silent mode between the start and end banners.
func (r *Runner) timed(tc *registry.TestCase) Outcome {
	start := time.Now()
	outcome := r.Invoke(tc, false)
	r.out.Printf("%s %s, time elapsed: %s\n", tc.Name, outcome, FormatElapsed(time.Since(start)))
	return outcome
}

// Invoke runs a single test case with a fresh context.
//
// A failed hard check is always recovered. In silent mode any other panic is
// reported and counted as a failure; otherwise it propagates to the caller so a
// debugger or the Go runtime can show where it came from. The expectation latch
// is cleared before Invoke returns or panics.
func (r *Runner) Invoke(tc *registry.TestCase, silent bool) (outcome Outcome) {
	t := check.New(tc.Name, silent, r.out)
	defer func() {
		failed := t.CheckAndReset()
		v := recover()
		switch {
		case v == nil:
			if failed {
				outcome = Failed
			} else {
				outcome = Passed
			}
		case check.IsAbort(v):
			outcome = Failed
		case !silent:
			panic(v)
		default:
			r.reportPanic(v)
			outcome = Errored
		}
	}()
	tc.Func(t)
	return Passed
}

func (r *Runner) reportPanic(v any) {
	if err, ok := v.(error); ok {
		r.out.Printf("Test failed! Unhandled exception: %T\n%s\n", err, err)
		return
	}
	r.out.Printf("Test failed! Unhandled unknown exception.\n%v\n", v)
}

// FormatElapsed renders d as the float duration followed by its breakdown,
// for example "1.500s(1s:500ms)" or "0.250ms(0ms)". Zero hour, minute and
// second components are left out.
func FormatElapsed(d time.Duration) string {
	var b strings.Builder
	if d > time.Millisecond {
		fmt.Fprintf(&b, "%.3fs", d.Seconds())
	} else {
		fmt.Fprintf(&b, "%.3fms", float64(d)/float64(time.Millisecond))
	}
	b.WriteByte('(')
	if h := int64(d / time.Hour); h > 0 {
		fmt.Fprintf(&b, "%dh:", h)
	}
	if m := int64(d % time.Hour / time.Minute); m > 0 {
		fmt.Fprintf(&b, "%dm:", m)
	}
	if s := int64(d % time.Minute / time.Second); s > 0 {
		fmt.Fprintf(&b, "%ds:", s)
	}
	fmt.Fprintf(&b, "%dms)", int64(d%time.Second/time.Millisecond))
	return b.String()
}
