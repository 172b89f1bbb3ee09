// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"time"
)

// BatchState is the state of a batch run.
type BatchState int

const (
	// BatchIdle means Run has not started dispatching.
	BatchIdle BatchState = iota
	// BatchDispatching means jobs are being admitted.
	BatchDispatching
	// BatchCompleted means every job ran and succeeded.
	BatchCompleted
	// BatchAborted means the batch stopped early, because a job failed or dispatch was cancelled.
	BatchAborted
)

// String implements fmt.Stringer.
func (s BatchState) String() string {
	switch s {
	case BatchIdle:
		return "idle"
	case BatchDispatching:
		return "dispatching"
	case BatchCompleted:
		return "completed"
	case BatchAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// JobStatus is the state of one job.
type JobStatus int

const (
	// JobPending means the job has not been dispatched yet.
	JobPending JobStatus = iota
	// JobRunning means the job was handed to a worker.
	JobRunning
	// JobSucceeded means the job exited successfully.
	JobSucceeded
	// JobFailed means the job could not start or exited unsuccessfully.
	JobFailed
	// JobSkipped means the batch stopped before the job was dispatched.
	JobSkipped
	// JobTerminated means the job was cancelled by the runner or its caller while running.
	// It does not count as a failure of the job.
	JobTerminated
)

// String implements fmt.Stringer.
func (s JobStatus) String() string {
	switch s {
	case JobPending:
		return "pending"
	case JobRunning:
		return "running"
	case JobSucceeded:
		return "succeeded"
	case JobFailed:
		return "failed"
	case JobSkipped:
		return "skipped"
	case JobTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// JobResult is the outcome of one job.
type JobResult struct {
	Index    int
	Job      JobSpec
	Status   JobStatus
	Err      error
	ExitCode int
	Duration time.Duration
}

// Result is the outcome of a batch run.
type Result struct {
	RunID       string
	State       BatchState
	FailedIndex int   // Lowest index of a failed job, -1 if none failed
	Cause       error // Why the batch was aborted, nil when completed
	Jobs        []JobResult
	Started     time.Time
	Finished    time.Time
}

// Succeeded reports whether every job ran and succeeded.
func (r *Result) Succeeded() bool {
	return r.State == BatchCompleted
}

// Err returns nil for a completed batch. For an aborted batch it returns a *JobFailureError when
// a job failed, or the cancellation cause otherwise.
func (r *Result) Err() error {
	if r.State == BatchCompleted {
		return nil
	}

	if r.FailedIndex >= 0 && r.FailedIndex < len(r.Jobs) {
		return &JobFailureError{
			Index: r.FailedIndex,
			Input: r.Jobs[r.FailedIndex].Job.Input(),
			Cause: r.Cause,
		}
	}

	return r.Cause
}

// Count returns the number of jobs with the given status.
func (r *Result) Count(status JobStatus) int {
	n := 0

	for _, j := range r.Jobs {
		if j.Status == status {
			n++
		}
	}

	return n
}
