// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConcurrency is returned by Run when the concurrency limit is below one.
	ErrInvalidConcurrency = errors.New("concurrency limit must be at least 1")
	// ErrNoExecutor is returned by Run when the runner has no executor.
	ErrNoExecutor = errors.New("runner has no executor")
	// ErrSpawnFailure is returned when a job's process could not be started.
	ErrSpawnFailure = errors.New("could not start process")
	// ErrNonZeroExit is matched by errors for processes that exited unsuccessfully.
	ErrNonZeroExit = errors.New("process exited with non-zero status")
	// ErrTerminated is returned when a running process was killed because its context ended.
	ErrTerminated = errors.New("process terminated")
	// ErrHalted is the cause of a batch stopped through the runner's Halt channel.
	ErrHalted = errors.New("dispatch halted")
)

// ExitError reports a process that ran and exited unsuccessfully.
type ExitError struct {
	Code   int    // Exit code, -1 when the process was killed by a signal
	Err    error  // Underlying error from the process wait
	Stderr string // Last line the process wrote to stderr, if any
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("exit code %d", e.Code)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	if e.Stderr != "" {
		msg += fmt.Sprintf(" (%s)", e.Stderr)
	}

	return msg
}

// Is lets errors.Is match ErrNonZeroExit.
func (e *ExitError) Is(target error) bool {
	return target == ErrNonZeroExit
}

// Unwrap returns the underlying error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// JobFailureError identifies the failed job that aborted a batch.
type JobFailureError struct {
	Index int    // Submission index of the job
	Input string // Input file of the job
	Cause error
}

func (e *JobFailureError) Error() string {
	return fmt.Sprintf("job %d (%s) failed: %v", e.Index, e.Input, e.Cause)
}

// Unwrap returns the cause.
func (e *JobFailureError) Unwrap() error {
	return e.Cause
}

// exitCode returns the exit code carried by err, 0 for nil and -1 when unknown.
func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}

	return -1
}
