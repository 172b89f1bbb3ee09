// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/matt-FFFFFF/vsbatch/internal/ctxlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestEventType_String(t *testing.T) {
	tests := []struct {
		eventType EventType
		expected  string
	}{
		{EventBatchStarted, "batch-started"},
		{EventStarted, "started"},
		{EventCompleted, "completed"},
		{EventFailed, "failed"},
		{EventSkipped, "skipped"},
		{EventBatchFinished, "batch-finished"},
		{EventTerminated, "terminated"},
		{EventType(999), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.eventType.String())
		})
	}
}

func TestChannelReporter_DeliversInOrder(t *testing.T) {
	r := NewChannelReporter(2)

	var (
		mu  sync.Mutex
		got []int
	)

	r.Listen(ListenerFunc(func(e Event) {
		mu.Lock()
		defer mu.Unlock()

		got = append(got, e.JobIndex)
	}))

	for i := range 50 {
		r.Report(Event{JobIndex: i, Type: EventStarted})
	}

	r.Close()

	require.Len(t, got, 50, "close waits for buffered events to be handled")

	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestChannelReporter_ReportAfterClose(t *testing.T) {
	r := NewChannelReporter(1)
	r.Listen(ListenerFunc(func(Event) {}))
	r.Close()

	assert.NotPanics(t, func() {
		r.Report(Event{Type: EventCompleted})
	})
	assert.NotPanics(t, r.Close, "close is idempotent")
}

func TestNullReporter(t *testing.T) {
	var r Reporter = NullReporter{}

	assert.NotPanics(t, func() {
		r.Report(Event{})
		r.Close()
	})
}

func TestLogListener(t *testing.T) {
	prev := ctxlog.LevelVar.Level()
	t.Cleanup(func() { ctxlog.LevelVar.Set(prev) })
	ctxlog.LevelVar.Set(slog.LevelInfo)

	buf := &bytes.Buffer{}
	ctx := ctxlog.New(context.Background(), ctxlog.NewLogger(ctxlog.FormatJSON, buf))
	l := LogListener(ctx)

	l.OnEvent(Event{RunID: "r1", Type: EventStarted, JobIndex: 0, Label: "a.fa"})
	l.OnEvent(Event{RunID: "r1", Type: EventFailed, JobIndex: 1, Label: "b.fa", ExitCode: 2, Err: errors.New("exit status 2")})
	l.OnEvent(Event{RunID: "r1", Type: EventSkipped, JobIndex: 2, Label: "c.fa"})
	l.OnEvent(Event{RunID: "r1", Type: EventTerminated, JobIndex: 3, Label: "d.fa", Err: context.Canceled})

	out := buf.String()
	assert.Contains(t, out, `"msg":"job started"`)
	assert.Contains(t, out, `"msg":"job failed"`)
	assert.Contains(t, out, `"exitCode":2`)
	assert.Contains(t, out, `"runID":"r1"`)
	assert.Contains(t, out, `"msg":"job terminated"`)
	assert.NotContains(t, out, "job skipped", "skipped jobs are logged at debug")
}
