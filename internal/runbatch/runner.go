// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/matt-FFFFFF/vsbatch/internal/ctxlog"
	"github.com/matt-FFFFFF/vsbatch/internal/progress"
	"golang.org/x/sync/errgroup"
)

// InFlightPolicy decides what happens to running jobs once the batch stops admitting new ones.
type InFlightPolicy int

const (
	// InFlightDrain lets running jobs finish.
	InFlightDrain InFlightPolicy = iota
	// InFlightTerminate cancels the context of running jobs.
	InFlightTerminate
)

// String implements fmt.Stringer.
func (p InFlightPolicy) String() string {
	if p == InFlightTerminate {
		return "terminate"
	}

	return "drain"
}

// Runner executes a batch with at most Limit jobs in flight and stops admitting jobs after the
// first failure.
type Runner struct {
	Limit    int               // Maximum number of concurrently running jobs, must be at least 1
	Executor Executor          // Runs each job
	Policy   InFlightPolicy    // What to do with running jobs when the batch stops
	Reporter progress.Reporter // Receives job lifecycle events, may be nil
	// Halt stops dispatch when closed. Running jobs are handled according to Policy.
	// A nil channel never halts.
	Halt <-chan struct{}
}

type completion struct {
	index    int
	err      error
	duration time.Duration
}

// Run executes batch and returns its Result.
// The error is non-nil only when the runner is misconfigured; job failures and cancellation
// are reported through the Result. Cancelling ctx stops dispatch and cancels running jobs
// regardless of Policy.
//
// Run returns only after every dispatched job has finished.
func (r *Runner) Run(ctx context.Context, batch Batch) (*Result, error) {
	if r.Limit < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidConcurrency, r.Limit)
	}

	if r.Executor == nil {
		return nil, ErrNoExecutor
	}

	reporter := r.Reporter
	if reporter == nil {
		reporter = progress.NullReporter{}
	}

	res := &Result{
		RunID:       uuid.NewString(),
		State:       BatchIdle,
		FailedIndex: -1,
		Jobs:        make([]JobResult, len(batch)),
		Started:     time.Now(),
	}

	for i, job := range batch {
		res.Jobs[i] = JobResult{Index: i, Job: job, Status: JobPending}
	}

	logger := ctxlog.Logger(ctx).With("runID", res.RunID)
	ctx = ctxlog.New(ctx, logger)

	logger.Debug("batch starting", "jobs", len(batch), "limit", r.Limit, "policy", r.Policy.String())
	reporter.Report(progress.Event{
		RunID:     res.RunID,
		JobIndex:  progress.BatchIndex,
		Type:      progress.EventBatchStarted,
		Timestamp: res.Started,
		Total:     len(batch),
	})

	if len(batch) > 0 {
		r.dispatch(ctx, batch, res, reporter)
	}

	r.finish(ctx, res, reporter)

	return res, nil
}

// dispatch is the coordinator loop. It is the only code that mutates res while workers run.
func (r *Runner) dispatch(ctx context.Context, batch Batch, res *Result, reporter progress.Reporter) {
	logger := ctxlog.Logger(ctx)
	workers := min(r.Limit, len(batch))

	// Jobs always see cancellation of ctx. terminate additionally cancels them for the
	// terminate policy.
	execCtx, terminate := context.WithCancel(ctx)
	defer terminate()

	work := make(chan int)
	done := make(chan completion, workers)

	g := &errgroup.Group{}
	for range workers {
		g.Go(func() error {
			for i := range work {
				start := time.Now()
				err := r.Executor.Execute(execCtx, batch[i])
				done <- completion{index: i, err: err, duration: time.Since(start)}
			}

			return nil
		})
	}

	res.State = BatchDispatching

	var (
		next, running int
		stopped       bool
		stopCause     error
		halt          = r.Halt
		ctxDone       = ctx.Done()
	)

	stop := func(cause error) {
		if stopped {
			return
		}

		stopped = true
		stopCause = cause

		logger.Info("batch stopping", "cause", cause.Error(), "running", running, "undispatched", len(batch)-next)

		if r.Policy == InFlightTerminate {
			terminate()
		}
	}

	// poll checks the stop signals without blocking. A fired channel is cleared so it is
	// observed once.
	poll := func() {
		select {
		case <-halt:
			halt = nil
			stop(ErrHalted)
		case <-ctxDone:
			ctxDone = nil
			stop(ctx.Err())
		default:
		}
	}

	for {
		for !stopped && running < workers && next < len(batch) {
			poll()

			if stopped {
				break
			}

			// a worker is idle because running < workers, so this send does not wait on a job
			work <- next

			res.Jobs[next].Status = JobRunning
			reporter.Report(progress.Event{
				RunID:     res.RunID,
				JobIndex:  next,
				Label:     batch[next].Input(),
				Type:      progress.EventStarted,
				Message:   batch[next].String(),
				Timestamp: time.Now(),
			})

			next++
			running++
		}

		if running == 0 {
			break
		}

		select {
		case c := <-done:
			running--

			if c.err != nil && cancelled(execCtx, c.err) {
				// execCtx is only cancelled through stop or ctx
				if err := ctx.Err(); err != nil {
					stop(err)
				}

				r.recordTerminated(res, c, reporter)

				continue
			}

			r.record(res, c, reporter)

			if c.err != nil {
				stop(fmt.Errorf("job %d failed: %w", c.index, c.err))
			}
		case <-halt:
			halt = nil
			stop(ErrHalted)
		case <-ctxDone:
			ctxDone = nil
			stop(ctx.Err())
		}
	}

	close(work)
	_ = g.Wait()

	for i := next; i < len(batch); i++ {
		res.Jobs[i].Status = JobSkipped
		reporter.Report(progress.Event{
			RunID:     res.RunID,
			JobIndex:  i,
			Label:     batch[i].Input(),
			Type:      progress.EventSkipped,
			Timestamp: time.Now(),
		})
	}

	for _, j := range res.Jobs {
		if j.Status == JobFailed {
			res.State = BatchAborted
			res.FailedIndex = j.Index
			res.Cause = j.Err

			return
		}
	}

	if stopCause != nil {
		res.State = BatchAborted
		res.Cause = stopCause

		return
	}

	res.State = BatchCompleted
}

// cancelled reports whether err is the result of execCtx being cancelled while the job ran,
// as opposed to a failure of the job itself.
func cancelled(execCtx context.Context, err error) bool {
	if execCtx.Err() == nil {
		return false
	}

	return errors.Is(err, ErrTerminated) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func (r *Runner) recordTerminated(res *Result, c completion, reporter progress.Reporter) {
	j := &res.Jobs[c.index]
	j.Status = JobTerminated
	j.Duration = c.duration
	j.Err = c.err
	j.ExitCode = exitCode(c.err)

	reporter.Report(progress.Event{
		RunID:     res.RunID,
		JobIndex:  c.index,
		Label:     j.Job.Input(),
		Type:      progress.EventTerminated,
		Message:   c.err.Error(),
		Timestamp: time.Now(),
		Err:       c.err,
		ExitCode:  j.ExitCode,
	})
}

func (r *Runner) record(res *Result, c completion, reporter progress.Reporter) {
	j := &res.Jobs[c.index]
	j.Duration = c.duration
	j.Err = c.err
	j.ExitCode = exitCode(c.err)

	ev := progress.Event{
		RunID:     res.RunID,
		JobIndex:  c.index,
		Label:     j.Job.Input(),
		Timestamp: time.Now(),
	}

	if c.err != nil {
		j.Status = JobFailed
		ev.Type = progress.EventFailed
		ev.Err = c.err
		ev.ExitCode = j.ExitCode
		ev.Message = c.err.Error()
	} else {
		j.Status = JobSucceeded
		ev.Type = progress.EventCompleted
		ev.Message = "completed in " + c.duration.Round(time.Millisecond).String()
	}

	reporter.Report(ev)
}

func (r *Runner) finish(ctx context.Context, res *Result, reporter progress.Reporter) {
	if res.State == BatchIdle {
		res.State = BatchCompleted
	}

	res.Finished = time.Now()

	ctxlog.Debug(ctx, "batch finished",
		"state", res.State.String(),
		"failedIndex", res.FailedIndex,
		"succeeded", res.Count(JobSucceeded),
		"failed", res.Count(JobFailed),
		"skipped", res.Count(JobSkipped),
		"terminated", res.Count(JobTerminated),
	)

	reporter.Report(progress.Event{
		RunID:     res.RunID,
		JobIndex:  progress.BatchIndex,
		Type:      progress.EventBatchFinished,
		Message:   res.State.String(),
		Timestamp: res.Finished,
		Err:       res.Err(),
		Total:     len(res.Jobs),
	})
}
