package discovery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Atliac/minitest/pkg/runner"
)

// CommandResult is the captured result of one host invocation.
type CommandResult struct {
	Command  []string
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Success reports whether the host exited with status 0.
func (r *CommandResult) Success() bool {
	return r.ExitCode == runner.Success
}

// ListCommand runs binary with the machine-list directive from the binary's
// own directory and returns its standard output.
func ListCommand(ctx context.Context, binary, marker string, timeout time.Duration) (string, error) {
	if marker == "" {
		return "", ErrEmptyMarker
	}
	res, err := execHost(ctx, binary, timeout, runner.FlagPriImplList, marker)
	if err != nil {
		return "", err
	}
	if !res.Success() {
		return "", fmt.Errorf("failed to list test cases of %s: exit code %d: %s", binary, res.ExitCode, res.Stderr)
	}
	return res.Stdout, nil
}

// RunCase runs the test case at index in silent mode, the same way the
// generated CTest entry does. A failing test is not an error; inspect the exit
// code of the result.
func RunCase(ctx context.Context, binary string, index int, timeout time.Duration) (*CommandResult, error) {
	return execHost(ctx, binary, timeout, runner.FlagPriImplRunNth, strconv.Itoa(index))
}

// execHost runs binary with args. Only failures to start or finish the
// process are returned as errors; a non-zero exit is reported in the result.
// A zero timeout means no limit.
func execHost(ctx context.Context, binary string, timeout time.Duration, args ...string) (*CommandResult, error) {
	abs, err := filepath.Abs(binary)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", binary, err)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, abs, args...)
	cmd.Dir = filepath.Dir(abs)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	res := &CommandResult{
		Command:  append([]string{abs}, args...),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("failed to run %s: %w", abs, ctxErr)
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("failed to run %s: %w", abs, err)
		}
		res.ExitCode = exitErr.ExitCode()
	}
	return res, nil
}
