// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/matt-FFFFFF/vsbatch/internal/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var errJob = errors.New("job failed")

func testBatch(n int) Batch {
	b := make(Batch, n)
	for i := range n {
		in := fmt.Sprintf("in-%d.fa", i)
		b[i] = NewJobSpec("vsearch", []string{"--shuffle", in}, in, "out/"+in)
	}

	return b
}

func indexOf(job JobSpec) int {
	var i int
	_, _ = fmt.Sscanf(job.Input(), "in-%d.fa", &i)

	return i
}

// callLog records the order jobs were executed in.
type callLog struct {
	mu    sync.Mutex
	calls []int
}

func (c *callLog) add(i int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = append(c.calls, i)
}

func (c *callLog) get() []int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.calls)
}

func statuses(res *Result) []JobStatus {
	s := make([]JobStatus, len(res.Jobs))
	for i, j := range res.Jobs {
		s[i] = j.Status
	}

	return s
}

func TestRun_InvalidConfig(t *testing.T) {
	ok := ExecutorFunc(func(context.Context, JobSpec) error { return nil })

	_, err := (&Runner{Limit: 0, Executor: ok}).Run(context.Background(), testBatch(1))
	require.ErrorIs(t, err, ErrInvalidConcurrency)

	_, err = (&Runner{Limit: -3, Executor: ok}).Run(context.Background(), testBatch(1))
	require.ErrorIs(t, err, ErrInvalidConcurrency)

	_, err = (&Runner{Limit: 1}).Run(context.Background(), testBatch(1))
	require.ErrorIs(t, err, ErrNoExecutor)
}

func TestRun_EmptyBatch(t *testing.T) {
	var called atomic.Bool

	r := &Runner{Limit: 4, Executor: ExecutorFunc(func(context.Context, JobSpec) error {
		called.Store(true)
		return nil
	})}

	res, err := r.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, BatchCompleted, res.State)
	assert.True(t, res.Succeeded())
	assert.Equal(t, -1, res.FailedIndex)
	assert.Empty(t, res.Jobs)
	require.NoError(t, res.Err())
	assert.False(t, called.Load())
}

func TestRun_AllSucceed(t *testing.T) {
	log := &callLog{}
	r := &Runner{Limit: 3, Executor: ExecutorFunc(func(_ context.Context, job JobSpec) error {
		log.add(indexOf(job))
		return nil
	})}

	res, err := r.Run(context.Background(), testBatch(10))
	require.NoError(t, err)
	assert.Equal(t, BatchCompleted, res.State)
	assert.Equal(t, -1, res.FailedIndex)
	require.NoError(t, res.Err())
	assert.Equal(t, 10, res.Count(JobSucceeded))
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, log.get())

	_, err = uuid.Parse(res.RunID)
	require.NoError(t, err, "run id is a uuid")
	assert.False(t, res.Finished.Before(res.Started))
}

func TestRun_ConcurrencyBound(t *testing.T) {
	const limit = 3

	var (
		running, peak atomic.Int32
		started       atomic.Int32
	)

	release := make(chan struct{})

	r := &Runner{Limit: limit, Executor: ExecutorFunc(func(context.Context, JobSpec) error {
		n := running.Add(1)
		defer running.Add(-1)

		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}

		started.Add(1)
		<-release

		return nil
	})}

	var (
		res *Result
		err error
	)

	finished := make(chan struct{})

	go func() {
		defer close(finished)

		res, err = r.Run(context.Background(), testBatch(8))
	}()

	require.Eventually(t, func() bool { return started.Load() == limit }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(limit), started.Load(), "no job starts while the limit is reached")

	close(release)
	<-finished

	require.NoError(t, err)
	assert.Equal(t, BatchCompleted, res.State)
	assert.Equal(t, int32(limit), peak.Load())
}

func TestRun_LimitLargerThanBatch(t *testing.T) {
	r := &Runner{Limit: 64, Executor: ExecutorFunc(func(context.Context, JobSpec) error { return nil })}

	res, err := r.Run(context.Background(), testBatch(2))
	require.NoError(t, err)
	assert.Equal(t, []JobStatus{JobSucceeded, JobSucceeded}, statuses(res))
}

func TestRun_FailFastSerial(t *testing.T) {
	log := &callLog{}
	r := &Runner{Limit: 1, Executor: ExecutorFunc(func(_ context.Context, job JobSpec) error {
		i := indexOf(job)
		log.add(i)

		if i == 2 {
			return errJob
		}

		return nil
	})}

	res, err := r.Run(context.Background(), testBatch(5))
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2}, log.get(), "jobs after the failure are never started")
	assert.Equal(t, BatchAborted, res.State)
	assert.False(t, res.Succeeded())
	assert.Equal(t, 2, res.FailedIndex)
	require.ErrorIs(t, res.Cause, errJob)
	assert.Equal(t,
		[]JobStatus{JobSucceeded, JobSucceeded, JobFailed, JobSkipped, JobSkipped},
		statuses(res),
	)

	var jfe *JobFailureError
	require.ErrorAs(t, res.Err(), &jfe)
	assert.Equal(t, 2, jfe.Index)
	assert.Equal(t, "in-2.fa", jfe.Input)
	require.ErrorIs(t, res.Err(), errJob)
}

func TestRun_FirstFailureIsLowestIndex(t *testing.T) {
	oneFailed := make(chan struct{})

	r := &Runner{Limit: 2, Executor: ExecutorFunc(func(_ context.Context, job JobSpec) error {
		switch indexOf(job) {
		case 0:
			<-oneFailed
			return fmt.Errorf("zero: %w", errJob)
		case 1:
			close(oneFailed)
			return fmt.Errorf("one: %w", errJob)
		default:
			return nil
		}
	})}

	res, err := r.Run(context.Background(), testBatch(4))
	require.NoError(t, err)

	assert.Equal(t, 0, res.FailedIndex, "the lowest failed index wins, not the earliest in time")
	assert.Contains(t, res.Cause.Error(), "zero")
	assert.Equal(t, []JobStatus{JobFailed, JobFailed, JobSkipped, JobSkipped}, statuses(res))
}

func TestRun_DrainPolicyLetsInFlightFinish(t *testing.T) {
	r := &Runner{Limit: 2, Executor: ExecutorFunc(func(ctx context.Context, job JobSpec) error {
		if indexOf(job) == 0 {
			return errJob
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
			return nil
		}
	})}

	res, err := r.Run(context.Background(), testBatch(4))
	require.NoError(t, err)
	assert.Equal(t, 0, res.FailedIndex)
	assert.Equal(t, []JobStatus{JobFailed, JobSucceeded, JobSkipped, JobSkipped}, statuses(res))
}

func TestRun_TerminatePolicyCancelsInFlight(t *testing.T) {
	r := &Runner{Limit: 2, Policy: InFlightTerminate, Executor: ExecutorFunc(func(ctx context.Context, job JobSpec) error {
		if indexOf(job) == 0 {
			return errJob
		}

		<-ctx.Done()

		return ctx.Err()
	})}

	res, err := r.Run(context.Background(), testBatch(4))
	require.NoError(t, err)
	assert.Equal(t, 0, res.FailedIndex)
	require.ErrorIs(t, res.Cause, errJob)
	assert.Equal(t, []JobStatus{JobFailed, JobTerminated, JobSkipped, JobSkipped}, statuses(res))
	require.ErrorIs(t, res.Jobs[1].Err, context.Canceled)
	assert.Equal(t, 1, res.Count(JobFailed), "a terminated job is not a failure")
}

func TestRun_TerminateBlamesTheFailedJob(t *testing.T) {
	var inFlight sync.WaitGroup

	inFlight.Add(2)

	r := &Runner{Limit: 3, Policy: InFlightTerminate, Executor: ExecutorFunc(func(ctx context.Context, job JobSpec) error {
		if indexOf(job) == 2 {
			inFlight.Wait()
			return errJob
		}

		inFlight.Done()
		<-ctx.Done()

		return &ExitError{Code: -1, Err: errors.Join(ErrTerminated, ctx.Err())}
	})}

	res, err := r.Run(context.Background(), testBatch(5))
	require.NoError(t, err)

	assert.Equal(t, BatchAborted, res.State)
	assert.Equal(t, 2, res.FailedIndex, "lower-index jobs killed by the runner are not the first failure")
	require.ErrorIs(t, res.Cause, errJob)
	assert.Equal(t,
		[]JobStatus{JobTerminated, JobTerminated, JobFailed, JobSkipped, JobSkipped},
		statuses(res),
	)
	require.ErrorIs(t, res.Jobs[0].Err, ErrTerminated)

	var jfe *JobFailureError
	require.ErrorAs(t, res.Err(), &jfe)
	assert.Equal(t, 2, jfe.Index)
	assert.Equal(t, "in-2.fa", jfe.Input)
}

func TestRun_HaltUnderTerminatePolicy(t *testing.T) {
	halt := make(chan struct{})

	var inFlight sync.WaitGroup

	inFlight.Add(2)

	go func() {
		inFlight.Wait()
		close(halt)
	}()

	r := &Runner{Limit: 2, Policy: InFlightTerminate, Halt: halt, Executor: ExecutorFunc(func(ctx context.Context, _ JobSpec) error {
		inFlight.Done()
		<-ctx.Done()

		return ctx.Err()
	})}

	res, err := r.Run(context.Background(), testBatch(3))
	require.NoError(t, err)
	assert.Equal(t, BatchAborted, res.State)
	assert.Equal(t, -1, res.FailedIndex)
	require.ErrorIs(t, res.Cause, ErrHalted)
	assert.Equal(t, []JobStatus{JobTerminated, JobTerminated, JobSkipped}, statuses(res))
}

func TestRun_HaltStopsDispatch(t *testing.T) {
	halt := make(chan struct{})

	r := &Runner{Limit: 1, Halt: halt, Executor: ExecutorFunc(func(ctx context.Context, job JobSpec) error {
		if indexOf(job) == 0 {
			close(halt)
		}

		return ctx.Err()
	})}

	res, err := r.Run(context.Background(), testBatch(3))
	require.NoError(t, err)
	assert.Equal(t, BatchAborted, res.State)
	assert.Equal(t, -1, res.FailedIndex)
	require.ErrorIs(t, res.Cause, ErrHalted)
	require.ErrorIs(t, res.Err(), ErrHalted)
	assert.Equal(t, []JobStatus{JobSucceeded, JobSkipped, JobSkipped}, statuses(res), "the running job drains")
}

func TestRun_HaltBeforeStart(t *testing.T) {
	halt := make(chan struct{})
	close(halt)

	var called atomic.Bool

	r := &Runner{Limit: 2, Halt: halt, Executor: ExecutorFunc(func(context.Context, JobSpec) error {
		called.Store(true)
		return nil
	})}

	res, err := r.Run(context.Background(), testBatch(3))
	require.NoError(t, err)
	assert.False(t, called.Load())
	assert.Equal(t, BatchAborted, res.State)
	assert.Equal(t, 3, res.Count(JobSkipped))
}

func TestRun_ContextCancelledWithoutFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &Runner{Limit: 1, Executor: ExecutorFunc(func(_ context.Context, job JobSpec) error {
		if indexOf(job) == 0 {
			cancel()
		}

		return nil
	})}

	res, err := r.Run(ctx, testBatch(3))
	require.NoError(t, err)
	assert.Equal(t, BatchAborted, res.State)
	assert.Equal(t, -1, res.FailedIndex)
	require.ErrorIs(t, res.Cause, context.Canceled)
	assert.Equal(t, []JobStatus{JobSucceeded, JobSkipped, JobSkipped}, statuses(res))
}

func TestRun_ContextCancelPropagatesUnderDrain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})

	r := &Runner{Limit: 1, Executor: ExecutorFunc(func(jobCtx context.Context, _ JobSpec) error {
		close(started)
		<-jobCtx.Done()

		return jobCtx.Err()
	})}

	go func() {
		<-started
		cancel()
	}()

	res, err := r.Run(ctx, testBatch(2))
	require.NoError(t, err)
	assert.Equal(t, BatchAborted, res.State)
	assert.Equal(t, -1, res.FailedIndex)
	require.ErrorIs(t, res.Cause, context.Canceled)
	require.ErrorIs(t, res.Err(), context.Canceled)
	assert.Equal(t, []JobStatus{JobTerminated, JobSkipped}, statuses(res))
}

func TestRun_ContextCancelWhileSeveralRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var inFlight sync.WaitGroup

	inFlight.Add(3)

	go func() {
		inFlight.Wait()
		cancel()
	}()

	r := &Runner{Limit: 3, Executor: ExecutorFunc(func(jobCtx context.Context, job JobSpec) error {
		inFlight.Done()

		if indexOf(job) == 1 {
			// ignores cancellation and finishes normally
			time.Sleep(20 * time.Millisecond)
			return nil
		}

		<-jobCtx.Done()

		return &ExitError{Code: -1, Err: errors.Join(ErrTerminated, jobCtx.Err())}
	})}

	res, err := r.Run(ctx, testBatch(5))
	require.NoError(t, err)
	assert.Equal(t, BatchAborted, res.State)
	assert.Equal(t, -1, res.FailedIndex)
	require.ErrorIs(t, res.Cause, context.Canceled)
	assert.Equal(t,
		[]JobStatus{JobTerminated, JobSucceeded, JobTerminated, JobSkipped, JobSkipped},
		statuses(res),
	)
	assert.Equal(t, 0, res.Count(JobFailed))
}

func TestRun_FailureUnrelatedToCancellation(t *testing.T) {
	r := &Runner{Limit: 2, Policy: InFlightTerminate, Executor: ExecutorFunc(func(ctx context.Context, job JobSpec) error {
		if indexOf(job) == 0 {
			return errJob
		}

		<-ctx.Done()

		// the job reports its own failure rather than the cancellation
		return &ExitError{Code: 9}
	})}

	res, err := r.Run(context.Background(), testBatch(2))
	require.NoError(t, err)
	assert.Equal(t, 0, res.FailedIndex)
	assert.Equal(t, []JobStatus{JobFailed, JobFailed}, statuses(res))
}

func TestRun_ExitCodeRecorded(t *testing.T) {
	r := &Runner{Limit: 1, Executor: ExecutorFunc(func(context.Context, JobSpec) error {
		return &ExitError{Code: 7}
	})}

	res, err := r.Run(context.Background(), testBatch(1))
	require.NoError(t, err)
	assert.Equal(t, 7, res.Jobs[0].ExitCode)
	require.ErrorIs(t, res.Err(), ErrNonZeroExit)
}

func TestRun_ReportsEvents(t *testing.T) {
	reporter := progress.NewChannelReporter(4)

	var events []progress.Event

	reporter.Listen(progress.ListenerFunc(func(e progress.Event) {
		events = append(events, e)
	}))

	r := &Runner{Limit: 1, Reporter: reporter, Executor: ExecutorFunc(func(_ context.Context, job JobSpec) error {
		if indexOf(job) == 1 {
			return &ExitError{Code: 2}
		}

		return nil
	})}

	res, err := r.Run(context.Background(), testBatch(3))
	require.NoError(t, err)
	reporter.Close()

	type step struct {
		index int
		typ   progress.EventType
	}

	got := make([]step, len(events))
	for i, e := range events {
		got[i] = step{e.JobIndex, e.Type}
		assert.Equal(t, res.RunID, e.RunID)
	}

	assert.Equal(t, []step{
		{progress.BatchIndex, progress.EventBatchStarted},
		{0, progress.EventStarted},
		{0, progress.EventCompleted},
		{1, progress.EventStarted},
		{1, progress.EventFailed},
		{2, progress.EventSkipped},
		{progress.BatchIndex, progress.EventBatchFinished},
	}, got)

	assert.Equal(t, 3, events[0].Total)
	assert.Equal(t, 2, events[4].ExitCode)
	assert.Equal(t, "in-1.fa", events[4].Label)
}
