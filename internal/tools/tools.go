// Package tools invokes the external measurement utilities as blocking
// subprocesses. Every invocation is bounded by a per-tool timeout; callers
// interpret exit codes according to each tool's contract and decide whether
// a failure degrades a single metric or aborts the scenario.
package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// ErrTimeout is returned when a tool exceeds its configured timeout.
var ErrTimeout = errors.New("tool timed out")

// Invocation describes one subprocess call.
type Invocation struct {
	Argv    []string      // command and arguments; Argv[0] is the binary
	Dir     string        // working directory; empty = inherit
	Timeout time.Duration // 0 = no deadline beyond the caller's context
}

// Result carries the captured output and exit status of a completed call.
// A non-zero exit code is not an error at this layer: tools like git diff
// encode their verdict in the exit status.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes tool invocations. The only non-test implementation is
// ExecRunner; tests substitute canned results.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (Result, error)
}

// ExecRunner runs invocations via os/exec with context-based timeouts.
type ExecRunner struct{}

// Run executes the invocation and waits for it to finish. It returns an
// error only when the process could not be run at all or was killed by the
// deadline; exit status is reported through Result.ExitCode.
func (ExecRunner) Run(ctx context.Context, inv Invocation) (Result, error) {
	if len(inv.Argv) == 0 {
		return Result{}, errors.New("empty invocation")
	}

	if inv.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, inv.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, inv.Argv[0], inv.Argv[1:]...)
	cmd.Dir = inv.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err == nil {
		return res, nil
	}

	// Deadline expiry surfaces as a killed process; report it as a timeout
	// so callers can apply their degradation policy.
	if ctx.Err() == context.DeadlineExceeded {
		return res, fmt.Errorf("%w: %s after %s", ErrTimeout, inv.Argv[0], inv.Timeout)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}

	return res, fmt.Errorf("run %s: %w", inv.Argv[0], err)
}
