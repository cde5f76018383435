package runner_test

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Atliac/minitest/pkg/check"
	"github.com/Atliac/minitest/pkg/registry"
	"github.com/Atliac/minitest/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exe = "/build/bin/host"

type customPanic struct{ code int }

// newFixture registers a small set of cases in non-sorted order.
func newFixture(t *testing.T) (*registry.Registry, *bytes.Buffer, *runner.Runner) {
	t.Helper()
	reg := registry.New()
	cases := []struct {
		name string
		fn   registry.TestFunc
	}{
		{"gamma", func(ct *check.T) { ct.AssertTrue(true) }},
		{"alpha", func(ct *check.T) { ct.AssertTrue(true) }},
		{"beta", func(ct *check.T) { ct.AssertFalse(false) }},
		{"hard", func(ct *check.T) { ct.AssertTrue(false, "stop") }},
		{"soft", func(ct *check.T) { ct.ExpectTrue(false) }},
		{"std-panic", func(*check.T) { panic(errors.New("disk full")) }},
		{"odd-panic", func(*check.T) { panic(customPanic{code: 7}) }},
	}
	for i, c := range cases {
		require.NoError(t, reg.Add(c.name, c.fn, fmt.Sprintf("cases.go:%d", i+10)))
	}
	var buf bytes.Buffer
	return reg, &buf, runner.New(reg, &buf)
}

func TestDispatchPassThrough(t *testing.T) {
	_, buf, r := newFixture(t)

	for _, args := range [][]string{
		{exe},
		{exe, "--verbose", "serve"},
		{exe, "--minitest-unknown"},
	} {
		res := r.Dispatch(args)
		assert.False(t, res.Handled, "args %v", args)
		assert.Equal(t, runner.PassThrough, res)
	}
	assert.Empty(t, buf.String())
}

func TestDispatchInvalidArgs(t *testing.T) {
	_, buf, r := newFixture(t)

	assert.Equal(t, runner.Handled(runner.Failure), r.Dispatch(nil))
	assert.Equal(t, "minitest: failed to run test, invalid arguments.\n", buf.String())
}

func TestList(t *testing.T) {
	reg := registry.New()
	for _, name := range []string{"gamma", "alpha", "beta"} {
		require.NoError(t, reg.Add(name, func(*check.T) {}, name+".go:3"))
	}
	var buf bytes.Buffer
	r := runner.New(reg, &buf)

	t.Run("human list", func(t *testing.T) {
		buf.Reset()
		res := r.Dispatch([]string{exe, runner.FlagListTestCases})
		assert.Equal(t, runner.Handled(runner.Success), res)
		assert.Equal(t,
			"minitest: host has 3 test cases.\n"+
				"0:alpha(alpha.go:3)\n"+
				"1:beta(beta.go:3)\n"+
				"2:gamma(gamma.go:3)\n",
			buf.String())
	})

	t.Run("machine list is bracketed by the marker", func(t *testing.T) {
		buf.Reset()
		res := r.Dispatch([]string{exe, runner.FlagPriImplList, "guid-1234"})
		assert.Equal(t, runner.Handled(runner.Success), res)
		assert.Equal(t,
			"guid-1234\n"+
				"0:alpha(alpha.go:3)\n"+
				"1:beta(beta.go:3)\n"+
				"2:gamma(gamma.go:3)\n"+
				"guid-1234\n",
			buf.String())
	})

	t.Run("singular header", func(t *testing.T) {
		one := registry.New()
		require.NoError(t, one.Add("only", func(*check.T) {}, "only.go:1"))
		var out bytes.Buffer
		runner.New(one, &out).Dispatch([]string{exe, runner.FlagListTestCases})
		assert.True(t, strings.HasPrefix(out.String(), "minitest: host has 1 test case.\n"))
	})

	t.Run("index is padded to the width of the size", func(t *testing.T) {
		many := registry.New()
		for i := 0; i < 12; i++ {
			require.NoError(t, many.Add(fmt.Sprintf("case%02d", i), func(*check.T) {}, "many.go:1"))
		}
		var out bytes.Buffer
		runner.New(many, &out).Dispatch([]string{exe, runner.FlagListTestCases})
		lines := strings.Split(out.String(), "\n")
		assert.Equal(t, " 0:case00(many.go:1)", lines[1])
		assert.Equal(t, "11:case11(many.go:1)", lines[12])
	})
}

func TestHelp(t *testing.T) {
	t.Run("help alone is handled", func(t *testing.T) {
		_, buf, r := newFixture(t)
		res := r.Dispatch([]string{exe, runner.FlagHelp})
		assert.Equal(t, runner.Handled(runner.Success), res)
		assert.True(t, strings.HasPrefix(buf.String(), "minitest: host has 7 test cases.\nUsage:\n"))
		assert.Contains(t, buf.String(), "--minitest-run-nth-test-case <n>\n")
	})

	t.Run("single dash spelling", func(t *testing.T) {
		_, buf, r := newFixture(t)
		res := r.Dispatch([]string{exe, "-minitest-help"})
		assert.True(t, res.Handled)
		assert.Contains(t, buf.String(), "Usage:")
	})

	t.Run("scanning continues after help", func(t *testing.T) {
		_, buf, r := newFixture(t)
		res := r.Dispatch([]string{exe, runner.FlagHelp, runner.FlagRunTestCase, "hard"})
		assert.Equal(t, runner.Handled(runner.Failure), res)
		out := buf.String()
		assert.Less(t, strings.Index(out, "Usage:"), strings.Index(out, "Running the test case: hard"))
	})
}

func TestRunByName(t *testing.T) {
	t.Run("passing case", func(t *testing.T) {
		_, buf, r := newFixture(t)
		res := r.Dispatch([]string{exe, runner.FlagRunTestCase, "alpha"})
		assert.Equal(t, runner.Handled(runner.Success), res)
		assert.True(t, strings.HasPrefix(buf.String(), "Running the test case: alpha\n"))
		assert.Contains(t, buf.String(), "alpha passed, time elapsed: ")
	})

	t.Run("hard failure", func(t *testing.T) {
		_, buf, r := newFixture(t)
		res := r.Dispatch([]string{exe, runner.FlagRunTestCase, "hard"})
		assert.Equal(t, runner.Handled(runner.Failure), res)
		assert.Contains(t, buf.String(), "minitest ASSERT_TRUE failed\nCustom message: stop\n")
		assert.Contains(t, buf.String(), "hard failed, time elapsed: ")
	})

	t.Run("soft failure is converted by the latch", func(t *testing.T) {
		_, _, r := newFixture(t)
		res := r.Dispatch([]string{exe, runner.FlagRunTestCase, "soft"})
		assert.Equal(t, runner.Handled(runner.Failure), res)
	})

	t.Run("missing name", func(t *testing.T) {
		_, buf, r := newFixture(t)
		res := r.Dispatch([]string{exe, runner.FlagRunTestCase, "delta"})
		assert.Equal(t, runner.Handled(runner.Failure), res)
		assert.Equal(t, "Error: failed to find test case delta\n", buf.String())
	})

	t.Run("missing argument", func(t *testing.T) {
		_, buf, r := newFixture(t)
		res := r.Dispatch([]string{exe, runner.FlagRunTestCase})
		assert.Equal(t, runner.Handled(runner.Failure), res)
		assert.Contains(t, buf.String(), "requires an argument")
	})

	t.Run("first directive wins", func(t *testing.T) {
		_, buf, r := newFixture(t)
		res := r.Dispatch([]string{exe, runner.FlagRunTestCase, "alpha", runner.FlagRunTestCase, "hard"})
		assert.Equal(t, runner.Handled(runner.Success), res)
		assert.NotContains(t, buf.String(), "hard")
	})
}

func TestRunNth(t *testing.T) {
	t.Run("sorted index", func(t *testing.T) {
		_, buf, r := newFixture(t)
		// alpha beta gamma hard odd-panic soft std-panic
		res := r.Dispatch([]string{exe, runner.FlagRunNthTestCase, "1"})
		assert.Equal(t, runner.Handled(runner.Success), res)
		assert.True(t, strings.HasPrefix(buf.String(), "Running the 1th test case: beta\n"))
	})

	t.Run("one past the end", func(t *testing.T) {
		reg, buf, r := newFixture(t)
		res := r.Dispatch([]string{exe, runner.FlagRunNthTestCase, fmt.Sprint(reg.Size())})
		assert.Equal(t, runner.Handled(runner.Failure), res)
		assert.Equal(t, "Error: the test case index should be in the range [0, 7)\n", buf.String())
	})

	t.Run("negative index", func(t *testing.T) {
		_, buf, r := newFixture(t)
		res := r.Dispatch([]string{exe, runner.FlagPriImplRunNth, "-1"})
		assert.Equal(t, runner.Handled(runner.Failure), res)
		assert.Contains(t, buf.String(), "range [0, 7)")
	})

	t.Run("malformed index", func(t *testing.T) {
		_, buf, r := newFixture(t)
		res := r.Dispatch([]string{exe, runner.FlagRunNthTestCase, "first"})
		assert.Equal(t, runner.Handled(runner.Failure), res)
		assert.Contains(t, buf.String(), "invalid test case index")
	})

	t.Run("silent run prints no banners", func(t *testing.T) {
		_, buf, r := newFixture(t)
		res := r.Dispatch([]string{exe, runner.FlagPriImplRunNth, "0"})
		assert.Equal(t, runner.Handled(runner.Success), res)
		assert.Empty(t, buf.String())
	})
}

func TestPanics(t *testing.T) {
	t.Run("silent mode reports error values", func(t *testing.T) {
		reg, buf, r := newFixture(t)
		i, ok := reg.IndexOf("std-panic")
		require.True(t, ok)

		res := r.Dispatch([]string{exe, runner.FlagPriImplRunNth, fmt.Sprint(i)})
		assert.Equal(t, runner.Handled(runner.Failure), res)
		assert.Equal(t, "Test failed! Unhandled exception: *errors.errorString\ndisk full\n", buf.String())
	})

	t.Run("silent mode reports unknown values", func(t *testing.T) {
		reg, buf, r := newFixture(t)
		i, _ := reg.IndexOf("odd-panic")

		res := r.Dispatch([]string{exe, runner.FlagPriImplRunNth, fmt.Sprint(i)})
		assert.Equal(t, runner.Handled(runner.Failure), res)
		assert.True(t, strings.HasPrefix(buf.String(), "Test failed! Unhandled unknown exception.\n"))
	})

	t.Run("non-silent mode propagates", func(t *testing.T) {
		_, _, r := newFixture(t)
		assert.PanicsWithValue(t, customPanic{code: 7}, func() {
			r.Dispatch([]string{exe, runner.FlagRunTestCase, "odd-panic"})
		})
		assert.Panics(t, func() {
			r.Dispatch([]string{exe, runner.FlagRunNthTestCase, "6"})
		})
	})
}

func TestInvoke(t *testing.T) {
	reg, _, r := newFixture(t)

	outcomes := map[string]runner.Outcome{
		"alpha":     runner.Passed,
		"hard":      runner.Failed,
		"soft":      runner.Failed,
		"std-panic": runner.Errored,
		"odd-panic": runner.Errored,
	}
	for name, want := range outcomes {
		t.Run(name, func(t *testing.T) {
			tc, ok := reg.Lookup(name)
			require.True(t, ok)
			assert.Equal(t, want, r.Invoke(tc, true))
		})
	}

	t.Run("latch does not leak between invocations", func(t *testing.T) {
		var seen *check.T
		leaky := &registry.TestCase{Name: "leaky", Func: func(ct *check.T) {
			seen = ct
			ct.ExpectTrue(false)
		}}
		assert.Equal(t, runner.Failed, r.Invoke(leaky, true))
		assert.False(t, seen.CheckAndReset())

		alpha, _ := reg.Lookup("alpha")
		assert.Equal(t, runner.Passed, r.Invoke(alpha, true))
	})

	t.Run("latch is cleared when a panic propagates", func(t *testing.T) {
		var seen *check.T
		tc := &registry.TestCase{Name: "boom", Func: func(ct *check.T) {
			seen = ct
			ct.ExpectTrue(false)
			panic("boom")
		}}
		assert.Panics(t, func() { r.Invoke(tc, false) })
		assert.False(t, seen.CheckAndReset())
	})

	t.Run("silent flag is visible to the body", func(t *testing.T) {
		var silent bool
		tc := &registry.TestCase{Name: "mode", Func: func(ct *check.T) { silent = ct.Silent() }}
		r.Invoke(tc, true)
		assert.True(t, silent)
		r.Invoke(tc, false)
		assert.False(t, silent)
	})
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, runner.Success, runner.Passed.ExitCode())
	assert.Equal(t, runner.Failure, runner.Failed.ExitCode())
	assert.Equal(t, runner.Failure, runner.Errored.ExitCode())
	assert.Equal(t, "errored", runner.Errored.String())
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{250 * time.Microsecond, "0.250ms(0ms)"},
		{time.Millisecond, "1.000ms(1ms)"},
		{1500 * time.Millisecond, "1.500s(1s:500ms)"},
		{2*time.Minute + 3*time.Second + 4*time.Millisecond, "123.004s(2m:3s:4ms)"},
		{time.Hour + 5*time.Millisecond, "3600.005s(1h:5ms)"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, runner.FormatElapsed(tt.d))
		})
	}
}
