// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type watchFixture struct {
	ctx    context.Context
	cancel context.CancelFunc
	halts  *atomic.Int32
	sigCh  chan os.Signal
	done   chan struct{}
}

func startWatch(t *testing.T) *watchFixture {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	f := &watchFixture{
		ctx:    ctx,
		cancel: cancel,
		halts:  &atomic.Int32{},
		sigCh:  make(chan os.Signal, 2),
		done:   make(chan struct{}),
	}

	go func() {
		defer close(f.done)
		Watch(ctx, f.sigCh, func() { f.halts.Add(1) }, cancel)
	}()

	t.Cleanup(func() {
		cancel()
		<-f.done
	})

	return f
}

func TestWatch_FirstSignalHalts(t *testing.T) {
	f := startWatch(t)

	f.sigCh <- os.Interrupt

	require.Eventually(t, func() bool { return f.halts.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.NoError(t, f.ctx.Err(), "context should not be cancelled after first signal")
}

func TestWatch_SecondSignalCancels(t *testing.T) {
	f := startWatch(t)

	f.sigCh <- os.Interrupt
	f.sigCh <- os.Interrupt

	select {
	case <-f.done:
	case <-time.After(time.Second):
		t.Fatal("watch did not return after second signal")
	}

	require.ErrorIs(t, f.ctx.Err(), context.Canceled)
	assert.Equal(t, int32(1), f.halts.Load(), "halt is called only once")
}

func TestWatch_DifferentSignalsDoNotCancel(t *testing.T) {
	f := startWatch(t)

	f.sigCh <- os.Interrupt
	f.sigCh <- syscall.SIGTERM

	require.Eventually(t, func() bool { return f.halts.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.NoError(t, f.ctx.Err(), "context should not be cancelled for different signals")
}

func TestWatch_ClosedChannelReturns(t *testing.T) {
	f := startWatch(t)

	close(f.sigCh)

	select {
	case <-f.done:
	case <-time.After(time.Second):
		t.Fatal("watch did not return after channel close")
	}

	assert.Equal(t, int32(0), f.halts.Load())
}
