// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package lastline provides a writer that passes output through while remembering the last
// line written. It is used to keep the final diagnostic a process printed before failing.
package lastline

import (
	"io"
	"strings"
	"sync"
)

// Writer forwards writes to an underlying writer and tracks the last non-empty line.
// Both '\n' and '\r' end a line, so progress output redrawn in place is handled.
// It is safe for concurrent use.
type Writer struct {
	w       io.Writer
	mu      sync.Mutex
	last    string
	partial strings.Builder
}

// NewWriter returns a Writer forwarding to w. A nil w discards the output.
func NewWriter(w io.Writer) *Writer {
	if w == nil {
		w = io.Discard
	}

	return &Writer{w: w}
}

// Write implements io.Writer.
// Lines are tracked even when the underlying writer fails.
func (lw *Writer) Write(p []byte) (int, error) {
	lw.mu.Lock()
	lw.process(p)
	lw.mu.Unlock()

	return lw.w.Write(p) //nolint:wrapcheck
}

// process must be called with the lock held.
func (lw *Writer) process(p []byte) {
	for _, b := range p {
		if b != '\n' && b != '\r' {
			lw.partial.WriteByte(b)
			continue
		}

		if line := strings.TrimSpace(lw.partial.String()); line != "" {
			lw.last = line
		}

		lw.partial.Reset()
	}
}

// Last returns the last non-empty line, including a trailing line without a terminator.
// If maxLength > 3 and the line is longer, it is cut and "..." appended.
func (lw *Writer) Last(maxLength int) string {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	line := lw.last
	if p := strings.TrimSpace(lw.partial.String()); p != "" {
		line = p
	}

	if maxLength > 3 && len(line) > maxLength {
		line = line[:maxLength-3] + "..."
	}

	return line
}
