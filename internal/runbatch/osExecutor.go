// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/matt-FFFFFF/vsbatch/internal/ctxlog"
	"github.com/matt-FFFFFF/vsbatch/internal/lastline"
	"github.com/matt-FFFFFF/vsbatch/internal/toolpath"
)

const (
	// DefaultTickInterval is how often a long-running process is reported as still running.
	DefaultTickInterval = 30 * time.Second
	// waitDelay bounds how long Wait blocks on output pipes after the process was killed.
	waitDelay = 5 * time.Second
	// maxStderrLine is the longest stderr line kept in an ExitError.
	maxStderrLine = 200
)

var _ Executor = (*OSExecutor)(nil)

// OSExecutor runs each job as an operating system process.
type OSExecutor struct {
	Stdout       io.Writer         // Receives the process stdout, discarded when nil
	Stderr       io.Writer         // Receives the process stderr, defaults to os.Stderr
	Env          map[string]string // Added to the inherited environment
	Dir          string            // Working directory, defaults to the current one
	TickInterval time.Duration     // Zero means DefaultTickInterval, negative disables the ticker

	// lookup resolves the executable, tests replace it.
	lookup func(string) (string, error)
}

// Execute implements Executor. It returns an error matching ErrSpawnFailure when the process
// cannot be started and an *ExitError when it exits unsuccessfully.
func (e *OSExecutor) Execute(ctx context.Context, job JobSpec) error {
	logger := ctxlog.Logger(ctx).With("input", job.Input())

	lookup := e.lookup
	if lookup == nil {
		lookup = toolpath.Lookup
	}

	path, err := lookup(job.Executable())
	if err != nil {
		return errors.Join(ErrSpawnFailure, err)
	}

	cmd := exec.CommandContext(ctx, path, job.Args()...)
	cmd.Dir = e.Dir
	cmd.Stdout = e.Stdout
	cmd.WaitDelay = waitDelay

	stderr := e.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	tail := lastline.NewWriter(stderr)
	cmd.Stderr = tail

	if len(e.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range e.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}

	logger.Debug("starting process", "path", path, "args", job.Args())

	if err := cmd.Start(); err != nil {
		return errors.Join(ErrSpawnFailure, err)
	}

	start := time.Now()
	logger.Debug("process started", "pid", cmd.Process.Pid)

	done := make(chan struct{})
	watchdogDone := make(chan struct{})

	go func() {
		defer close(watchdogDone)
		e.watch(logger, start, done)
	}()

	err = cmd.Wait()

	close(done)
	<-watchdogDone

	logger.Debug("process finished", "duration", time.Since(start).Round(time.Millisecond).String())

	if err == nil {
		return nil
	}

	var ee *exec.ExitError
	if !errors.As(err, &ee) {
		return err //nolint:wrapcheck
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return &ExitError{Code: ee.ExitCode(), Err: errors.Join(ErrTerminated, ctxErr)}
	}

	return &ExitError{Code: ee.ExitCode(), Err: err, Stderr: tail.Last(maxStderrLine)}
}

// watch logs that the process is still running until done is closed.
func (e *OSExecutor) watch(logger *slog.Logger, start time.Time, done <-chan struct{}) {
	interval := e.TickInterval
	if interval < 0 {
		<-done
		return
	}

	if interval == 0 {
		interval = DefaultTickInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logger.Info("still running", "elapsed", time.Since(start).Round(time.Second).String())
		case <-done:
			return
		}
	}
}
