// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"
	"sync"

	"github.com/matt-FFFFFF/vsbatch/internal/ctxlog"
)

// Watch consumes sigCh until ctx is done or the channel is closed.
// The first signal received calls halt once. A repeated signal of the same type calls cancel and
// Watch returns.
func Watch(ctx context.Context, sigCh <-chan os.Signal, halt func(), cancel context.CancelFunc) {
	var once sync.Once

	seen := make(map[os.Signal]struct{})

	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-sigCh:
			if !ok {
				return
			}

			if _, dup := seen[sig]; dup {
				ctxlog.Warn(ctx, "watchdog", "detail", "second signal received, terminating running jobs", "signal", sig.String())
				cancel()

				return
			}

			seen[sig] = struct{}{}

			ctxlog.Warn(ctx, "watchdog", "detail", "signal received, no new jobs will be started", "signal", sig.String())
			once.Do(halt)
		}
	}
}
