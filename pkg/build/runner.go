// pkg/build/runner.go

// Package build runs package build steps inside a fetched source tree.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/chainguard-dev/clog"
)

// StepError reports the first build step that exited non-zero
type StepError struct {
	Step     string
	ExitCode int
}

func (e *StepError) Error() string {
	return fmt.Sprintf("build step failed (exit %d): %s", e.ExitCode, e.Step)
}

// SpawnError reports a build step whose process could not be started
type SpawnError struct {
	Step string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("starting build step %q: %v", e.Step, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// Runner executes build steps through a shell
type Runner struct {
	// Shell runs each step as `Shell -c step` (default: sh)
	Shell string

	// Stdout and Stderr receive step output (default: os.Stdout, os.Stderr)
	Stdout io.Writer
	Stderr io.Writer

	// Env is appended to the inherited environment of every step
	Env []string

	// Timeout bounds each step (zero: no limit)
	Timeout time.Duration
}

// NewRunner creates a runner streaming to the process's stdout and stderr
func NewRunner() *Runner {
	return &Runner{Shell: "sh", Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run executes steps in order inside dir. The first failing step stops the
// run; later steps never execute.
func (r *Runner) Run(ctx context.Context, dir string, steps []string) error {
	log := clog.FromContext(ctx)

	for i, step := range steps {
		log.Infof("[%d/%d] %s", i+1, len(steps), step)
		if err := r.runStep(ctx, dir, step); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runStep(ctx context.Context, dir, step string) error {
	shell := r.Shell
	if shell == "" {
		shell = "sh"
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, shell, "-c", step)
	cmd.Dir = dir
	// children of the shell may hold the output pipes open after it is killed
	cmd.WaitDelay = time.Second
	cmd.Stdout = writerOr(r.Stdout, os.Stdout)
	cmd.Stderr = writerOr(r.Stderr, os.Stderr)
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}

	if err := cmd.Start(); err != nil {
		return &SpawnError{Step: step, Err: err}
	}
	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("build step %q: %w", step, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &StepError{Step: step, ExitCode: exitErr.ExitCode()}
		}
		return &SpawnError{Step: step, Err: err}
	}
	return nil
}

func writerOr(w, fallback io.Writer) io.Writer {
	if w == nil {
		return fallback
	}
	return w
}
