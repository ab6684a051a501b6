package buildsys

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"time"

	"git.home.luguber.info/inful/doxyhook/internal/logfields"
)

// outputLimit caps how much of each stream is kept in memory per invocation.
const outputLimit = 64 << 10

// Executor runs a single resolved command.
type Executor interface {
	Execute(ctx context.Context, cmd Command) (Result, error)
}

// ProcessExecutor runs commands as child processes.
type ProcessExecutor struct {
	// Stream, when set, receives the child's stdout and stderr live, in
	// addition to the captured copy in Result.
	Stream io.Writer
}

// Execute starts cmd and waits for it. The returned error wraps
// ErrBinaryNotFound, ErrExecutionFailed or ErrTimeout; the Result is always
// populated with whatever was captured.
func (p *ProcessExecutor) Execute(ctx context.Context, cmd Command) (Result, error) {
	res := Result{Command: cmd, ExitCode: -1}

	path, err := exec.LookPath(cmd.Name)
	if err != nil {
		return res, fmt.Errorf("%w: %s: %w", ErrBinaryNotFound, cmd.Name, err)
	}

	stdout := newTailBuffer(outputLimit)
	stderr := newTailBuffer(outputLimit)
	c := exec.CommandContext(ctx, path, cmd.Args...)
	c.Dir = cmd.Dir
	c.WaitDelay = 5 * time.Second
	if p.Stream != nil {
		c.Stdout = io.MultiWriter(stdout, p.Stream)
		c.Stderr = io.MultiWriter(stderr, p.Stream)
	} else {
		c.Stdout = stdout
		c.Stderr = stderr
	}

	slog.Debug("Invoking build system", logfields.Command(cmd.Name, cmd.Args), logfields.Path(cmd.Dir))
	start := time.Now()
	runErr := c.Run()
	res.Duration = time.Since(start)
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	if c.ProcessState != nil {
		res.ExitCode = c.ProcessState.ExitCode()
	}

	if res.Stdout != "" {
		slog.Debug("build system stdout", "output", res.Stdout)
	}
	if res.Stderr != "" {
		slog.Warn("build system stderr", "error_output", res.Stderr)
	}

	if runErr == nil {
		return res, nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return res, fmt.Errorf("%w after %s: %w", ErrTimeout, res.Duration.Round(time.Millisecond), runErr)
	}
	if ctx.Err() != nil {
		return res, fmt.Errorf("%w: %w", ctx.Err(), runErr)
	}
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return res, fmt.Errorf("%w: %s exited with code %d", ErrExecutionFailed, cmd.Name, res.ExitCode)
	}
	return res, fmt.Errorf("%w: %w", ErrExecutionFailed, runErr)
}
