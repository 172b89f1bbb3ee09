// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"context"

	"github.com/matt-FFFFFF/vsbatch/internal/ctxlog"
)

// LogListener writes events to the logger carried by ctx.
func LogListener(ctx context.Context) Listener {
	return ListenerFunc(func(e Event) {
		logger := ctxlog.Logger(ctx).With("runID", e.RunID)

		switch e.Type {
		case EventBatchStarted:
			logger.Info("batch started", "jobs", e.Total)
		case EventBatchFinished:
			logger.Info("batch finished", "detail", e.Message)
		case EventStarted:
			logger.Info("job started", "index", e.JobIndex, "input", e.Label)
		case EventCompleted:
			logger.Info("job completed", "index", e.JobIndex, "input", e.Label)
		case EventFailed:
			logger.Error("job failed", "index", e.JobIndex, "input", e.Label, "exitCode", e.ExitCode, "error", errString(e.Err))
		case EventTerminated:
			logger.Warn("job terminated", "index", e.JobIndex, "input", e.Label, "error", errString(e.Err))
		case EventSkipped:
			logger.Debug("job skipped", "index", e.JobIndex, "input", e.Label)
		}
	})
}

func errString(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}
