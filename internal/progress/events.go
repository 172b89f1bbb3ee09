// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"time"
)

// Event is a state change of one job, or of the batch as a whole when JobIndex is BatchIndex.
type Event struct {
	RunID     string    // Identifier of the batch run
	JobIndex  int       // Submission index of the job, or BatchIndex
	Label     string    // Input file of the job
	Type      EventType // What happened
	Message   string    // Human-readable status message
	Timestamp time.Time // When the event occurred
	ExitCode  int       // For EventFailed and EventTerminated, the exit code if the process ran
	Err       error     // For EventFailed and EventTerminated, the cause
	Total     int       // For EventBatchStarted, the number of jobs in the batch
}

// BatchIndex is the JobIndex of events that describe the whole batch.
const BatchIndex = -1

// EventType represents the type of progress event.
type EventType int

const (
	// EventBatchStarted is sent once before any job is dispatched.
	EventBatchStarted EventType = iota
	// EventStarted indicates a job was dispatched to a worker.
	EventStarted
	// EventCompleted indicates a job exited successfully.
	EventCompleted
	// EventFailed indicates a job failed to start or exited non-zero.
	EventFailed
	// EventSkipped indicates a job was never dispatched because the batch stopped.
	EventSkipped
	// EventBatchFinished is sent once after every worker has returned.
	EventBatchFinished
	// EventTerminated indicates a running job was cancelled because the batch stopped.
	EventTerminated
)

// String implements the Stringer interface for EventType.
func (et EventType) String() string {
	switch et {
	case EventBatchStarted:
		return "batch-started"
	case EventStarted:
		return "started"
	case EventCompleted:
		return "completed"
	case EventFailed:
		return "failed"
	case EventSkipped:
		return "skipped"
	case EventBatchFinished:
		return "batch-finished"
	case EventTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Reporter receives events. Report must not block the caller for long.
type Reporter interface {
	Report(event Event)
	Close()
}

// Listener handles events forwarded by a ChannelReporter.
type Listener interface {
	OnEvent(event Event)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(Event)

// OnEvent implements Listener.
func (f ListenerFunc) OnEvent(e Event) {
	f(e)
}

// NullReporter discards all events.
type NullReporter struct{}

// Report implements Reporter.
func (NullReporter) Report(Event) {}

// Close implements Reporter.
func (NullReporter) Close() {}
