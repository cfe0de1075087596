package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

// ErrTimeout is returned when an external tool exceeds its deadline. The
// spawned process is killed before the error is surfaced.
var ErrTimeout = errors.New("external tool timed out")

// Command describes one external tool invocation.
type Command struct {
	Bin     string
	Args    []string
	Dir     string        // working directory, empty for inherited
	Timeout time.Duration // zero means no per-command deadline
}

// Output holds captured diagnostics from a finished invocation.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Runner invokes external binaries with a bounded timeout and output capture.
type Runner struct {
	log *zap.SugaredLogger
}

func New(log *zap.SugaredLogger) *Runner {
	return &Runner{log: log}
}

// Run executes the command and waits for it to finish. On timeout the process
// is terminated and ErrTimeout is returned; stdout/stderr are captured on
// every exit path.
func (r *Runner) Run(ctx context.Context, cmd Command) (Output, error) {
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(ctx, cmd.Bin, cmd.Args...)
	c.Dir = cmd.Dir
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	start := time.Now()
	err := c.Run()
	out := Output{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if c.ProcessState != nil {
		out.ExitCode = c.ProcessState.ExitCode()
	}

	if ctx.Err() == context.DeadlineExceeded {
		r.log.Warnw("external tool timed out", "bin", cmd.Bin, "timeout", cmd.Timeout)
		return out, fmt.Errorf("%s: %w", cmd.Bin, ErrTimeout)
	}
	if err != nil {
		r.log.Debugw("external tool failed",
			"bin", cmd.Bin, "exit_code", out.ExitCode, "stderr", out.Stderr)
		return out, fmt.Errorf("%s: %w", cmd.Bin, err)
	}

	r.log.Debugw("external tool finished",
		"bin", cmd.Bin, "exit_code", out.ExitCode, "duration", out.Duration)
	return out, nil
}

// Available probes PATH for each binary and reports which were found.
func Available(bins ...string) map[string]bool {
	found := make(map[string]bool, len(bins))
	for _, b := range bins {
		_, err := exec.LookPath(b)
		found[b] = err == nil
	}
	return found
}
