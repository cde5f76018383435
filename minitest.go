package minitest

import (
	"os"

	"github.com/Atliac/minitest/pkg/check"
	"github.com/Atliac/minitest/pkg/registry"
	"github.com/Atliac/minitest/pkg/runner"
)

// T is the per-invocation context passed to every test case.
type T = check.T

// Process exit codes of handled directives.
const (
	Success = runner.Success
	Failure = runner.Failure
)

// Case registers fn under name in the default registry. It returns true so it
// can initialize a package-level variable. A duplicate or empty name
// terminates the process.
func Case(name string, fn func(*T)) bool {
	registry.Default().Register(name, fn, check.Caller(1))
	return true
}

// Run dispatches args against the default registry, writing to stdout.
func Run(args []string) runner.Result {
	return runner.New(registry.Default(), os.Stdout).Dispatch(args)
}

// Main runs os.Args and exits with the resulting code if a directive was
// handled. It returns when the arguments were not meant for minitest.
func Main() {
	if res := Run(os.Args); res.Handled {
		os.Exit(res.ExitCode)
	}
}
