package tools

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// DefaultTimeout bounds an external tool's wall-clock runtime when the
// command does not set one.
const DefaultTimeout = 60 * time.Second

// maxCaptureBytes caps each of stdout and stderr.
const maxCaptureBytes = 256 * 1024

// Status tags the outcome of a bounded subprocess execution.
type Status string

const (
	StatusCompleted     Status = "completed"
	StatusTimedOut      Status = "timed_out"
	StatusFailedToStart Status = "failed_to_start"
)

// Command describes one external process invocation. The child inherits the
// parent environment.
type Command struct {
	Bin     string
	Args    []string
	Dir     string
	Timeout time.Duration
}

// Outcome is the tagged result of Execute. On timeout, Stdout and Stderr hold
// whatever the process emitted before termination.
type Outcome struct {
	Status   Status
	ExitCode int
	Stdout   string
	Stderr   string
	// Reason is set only for StatusFailedToStart.
	Reason string
	// Timeout echoes the enforced limit, for reporting.
	Timeout time.Duration
}

// Execute runs the command under a hard wall-clock timeout with separately
// captured, size-capped stdout and stderr.
func Execute(ctx context.Context, cmd Command) Outcome {
	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	proc := exec.CommandContext(runCtx, cmd.Bin, cmd.Args...)
	proc.Dir = cmd.Dir

	stdout := newLimitedCapture(maxCaptureBytes)
	stderr := newLimitedCapture(maxCaptureBytes)
	proc.Stdout = &stdout
	proc.Stderr = &stderr

	err := proc.Run()
	outcome := Outcome{
		Status:  StatusCompleted,
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
		Timeout: timeout,
	}

	switch {
	case err == nil:
		outcome.ExitCode = 0
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		outcome.Status = StatusTimedOut
		outcome.ExitCode = -1
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			outcome.ExitCode = exitErr.ExitCode()
		} else {
			outcome.Status = StatusFailedToStart
			outcome.ExitCode = -1
			outcome.Reason = err.Error()
		}
	}
	return outcome
}

// limitedCapture buffers writes up to a byte limit and drops the rest,
// reporting success to the writer so the child never sees a short write.
type limitedCapture struct {
	limit     int
	buf       bytes.Buffer
	truncated bool
}

func newLimitedCapture(limit int) limitedCapture {
	if limit < 0 {
		limit = 0
	}
	return limitedCapture{limit: limit}
}

func (c *limitedCapture) Write(p []byte) (int, error) {
	remaining := c.limit - c.buf.Len()
	if remaining <= 0 {
		if len(p) > 0 {
			c.truncated = true
		}
		return len(p), nil
	}
	if len(p) > remaining {
		_, _ = c.buf.Write(p[:remaining])
		c.truncated = true
		return len(p), nil
	}
	_, _ = c.buf.Write(p)
	return len(p), nil
}

func (c *limitedCapture) String() string {
	return c.buf.String()
}

func (c *limitedCapture) Truncated() bool {
	return c.truncated
}
