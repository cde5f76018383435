package check

import (
	"fmt"
	"reflect"
)

// AssertTrue aborts the test if cond is false.
func (t *T) AssertTrue(cond bool, msg ...any) {
	if !cond {
		t.fail(true, "minitest ASSERT_TRUE failed", Caller(1), msg)
	}
}

// AssertFalse aborts the test if cond is true.
func (t *T) AssertFalse(cond bool, msg ...any) {
	if cond {
		t.fail(true, "minitest ASSERT_FALSE failed", Caller(1), msg)
	}
}

// AssertNoError aborts the test if err is not nil.
func (t *T) AssertNoError(err error, msg ...any) {
	if err != nil {
		t.fail(true, fmt.Sprintf("minitest ASSERT_NO_ERROR failed: %v", err), Caller(1), msg)
	}
}

// AssertPanics aborts the test unless f panics.
func (t *T) AssertPanics(f func(), msg ...any) {
	if headline, ok := panics("ASSERT_PANICS", f); !ok {
		t.fail(true, headline, Caller(1), msg)
	}
}

// AssertNotPanics aborts the test if f panics.
func (t *T) AssertNotPanics(f func(), msg ...any) {
	if headline, ok := notPanics("ASSERT_NOT_PANICS", f); !ok {
		t.fail(true, headline, Caller(1), msg)
	}
}

// Fail reports an unconditional failure and aborts the test.
func (t *T) Fail(msg ...any) {
	t.fail(true, "minitest FAIL()", Caller(1), msg)
}

// Succeed prints a success note. It never fails.
func (t *T) Succeed(msg ...any) {
	t.report("minitest SUCCEED()", Caller(1), msg)
}

// ExpectTrue records a failure if cond is false.
func (t *T) ExpectTrue(cond bool, msg ...any) {
	if !cond {
		t.fail(false, "minitest EXPECT_TRUE failed", Caller(1), msg)
	}
}

// ExpectFalse records a failure if cond is true.
func (t *T) ExpectFalse(cond bool, msg ...any) {
	if cond {
		t.fail(false, "minitest EXPECT_FALSE failed", Caller(1), msg)
	}
}

// ExpectNoError records a failure if err is not nil.
func (t *T) ExpectNoError(err error, msg ...any) {
	if err != nil {
		t.fail(false, fmt.Sprintf("minitest EXPECT_NO_ERROR failed: %v", err), Caller(1), msg)
	}
}

// ExpectPanics records a failure unless f panics.
func (t *T) ExpectPanics(f func(), msg ...any) {
	if headline, ok := panics("EXPECT_PANICS", f); !ok {
		t.fail(false, headline, Caller(1), msg)
	}
}

// ExpectNotPanics records a failure if f panics.
func (t *T) ExpectNotPanics(f func(), msg ...any) {
	if headline, ok := notPanics("EXPECT_NOT_PANICS", f); !ok {
		t.fail(false, headline, Caller(1), msg)
	}
}

// Info prints the concatenated message. Nothing is printed without arguments.
func (t *T) Info(msg ...any) {
	if len(msg) == 0 {
		return
	}
	t.out.Print(concat(msg) + "\n")
}

// AssertPanicsWith aborts the test unless f panics with a value of type E.
// E may be an interface type, in which case any value implementing it matches.
func AssertPanicsWith[E any](t *T, f func(), msg ...any) {
	if headline, ok := panicsWith[E]("ASSERT_PANICS_WITH", f); !ok {
		t.fail(true, headline, Caller(1), msg)
	}
}

// ExpectPanicsWith records a failure unless f panics with a value of type E.
func ExpectPanicsWith[E any](t *T, f func(), msg ...any) {
	if headline, ok := panicsWith[E]("EXPECT_PANICS_WITH", f); !ok {
		t.fail(false, headline, Caller(1), msg)
	}
}

// catch runs f and returns the value it panicked with.
func catch(f func()) (v any, panicked bool) {
	panicked = true
	defer func() {
		if panicked {
			v = recover()
		}
	}()
	f()
	panicked = false
	return nil, false
}

func panics(name string, f func()) (string, bool) {
	v, panicked := catch(f)
	if !panicked {
		return fmt.Sprintf("minitest %s failed: The expected panic was not raised.", name), false
	}
	if IsAbort(v) {
		panic(v)
	}
	return "", true
}

func notPanics(name string, f func()) (string, bool) {
	v, panicked := catch(f)
	if !panicked {
		return "", true
	}
	if IsAbort(v) {
		panic(v)
	}
	return fmt.Sprintf("minitest %s failed: The panic `%T` was raised.", name, v), false
}

func panicsWith[E any](name string, f func()) (string, bool) {
	want := reflect.TypeFor[E]().String()
	v, panicked := catch(f)
	if !panicked {
		return fmt.Sprintf("minitest %s failed: The expected panic `%s` was not raised.", name, want), false
	}
	if IsAbort(v) {
		panic(v)
	}
	if _, ok := v.(E); ok {
		return "", true
	}
	return fmt.Sprintf("minitest %s failed: The panic `%T` was raised, but not the expected `%s`.", name, v, want), false
}
