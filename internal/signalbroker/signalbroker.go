// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package signalbroker turns operating system signals into a two-stage shutdown.
// By default it listens for SIGINT, SIGTERM and SIGQUIT.
//
// The first signal asks the caller to stop starting new work. A second signal of the
// same type cancels the root context so that running processes are killed.
package signalbroker

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/matt-FFFFFF/vsbatch/internal/ctxlog"
)

var termSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
	syscall.SIGQUIT,
}

// New registers for the given signals, or the termination signals if none are given,
// and returns the channel they are delivered on. The registration is removed when ctx is done.
func New(ctx context.Context, sigs ...os.Signal) chan os.Signal {
	ch := make(chan os.Signal, 1)

	if len(sigs) == 0 {
		sigs = termSignals
	}

	ctxlog.Debug(ctx, "signalbroker", "detail", "registering signals", "signals", sigs)
	signal.Notify(ch, sigs...)

	go func() {
		<-ctx.Done()
		signal.Stop(ch)
	}()

	return ch
}
