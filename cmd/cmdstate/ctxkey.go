// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cmdstate carries process-wide state from main to the subcommands through the context.
package cmdstate

import (
	"context"
	"sync"
)

type halterKey struct{}

// Halter is a stop-dispatch signal that can be raised more than once.
type Halter struct {
	ch   chan struct{}
	once sync.Once
}

// NewHalter returns a Halter that has not been raised.
func NewHalter() *Halter {
	return &Halter{ch: make(chan struct{})}
}

// Halt raises the signal. Only the first call has an effect.
func (h *Halter) Halt() {
	h.once.Do(func() { close(h.ch) })
}

// Done is closed once Halt has been called.
func (h *Halter) Done() <-chan struct{} {
	return h.ch
}

// WithHalter returns a copy of ctx carrying h.
func WithHalter(ctx context.Context, h *Halter) context.Context {
	return context.WithValue(ctx, halterKey{}, h)
}

// HalterFrom returns the Halter carried by ctx, or a new one that is never raised by signals.
func HalterFrom(ctx context.Context) *Halter {
	if h, ok := ctx.Value(halterKey{}).(*Halter); ok && h != nil {
		return h
	}

	return NewHalter()
}
