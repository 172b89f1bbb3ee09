// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package lastline

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_Last(t *testing.T) {
	tests := []struct {
		name   string
		writes []string
		want   string
	}{
		{name: "nothing written", writes: nil, want: ""},
		{name: "single line", writes: []string{"hello world\n"}, want: "hello world"},
		{name: "no terminator", writes: []string{"partial"}, want: "partial"},
		{name: "several lines", writes: []string{"one\ntwo\nthree\n"}, want: "three"},
		{name: "trailing blank lines", writes: []string{"fatal: bad input\n\n\n"}, want: "fatal: bad input"},
		{name: "line split across writes", writes: []string{"Reading fi", "le db.fa\n"}, want: "Reading file db.fa"},
		{name: "carriage returns", writes: []string{"Clustering 10%\rClustering 55%\rClustering 100%\n"}, want: "Clustering 100%"},
		{name: "partial after complete", writes: []string{"done\nWriting out"}, want: "Writing out"},
		{name: "whitespace only partial", writes: []string{"done\n   "}, want: "done"},
		{name: "crlf", writes: []string{"a\r\nb\r\n"}, want: "b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer

			w := NewWriter(&out)
			for _, s := range tt.writes {
				n, err := w.Write([]byte(s))
				require.NoError(t, err)
				assert.Equal(t, len(s), n)
			}

			assert.Equal(t, tt.want, w.Last(0))

			var all string
			for _, s := range tt.writes {
				all += s
			}

			assert.Equal(t, all, out.String(), "everything is passed through")
		})
	}
}

func TestWriter_Truncate(t *testing.T) {
	w := NewWriter(nil)
	_, err := w.Write([]byte("Fatal error: Unable to read from file (reads.fq)\n"))
	require.NoError(t, err)

	assert.Equal(t, "Fatal er...", w.Last(11))
	assert.Len(t, w.Last(11), 11)
	assert.Equal(t, "Fatal error: Unable to read from file (reads.fq)", w.Last(3), "too small a limit is ignored")
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) {
	return 0, errors.New("closed")
}

func TestWriter_UnderlyingError(t *testing.T) {
	w := NewWriter(failWriter{})

	_, err := w.Write([]byte("last words\n"))
	require.Error(t, err)
	assert.Equal(t, "last words", w.Last(0))
}

func TestWriter_Concurrent(t *testing.T) {
	w := NewWriter(nil)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for j := range 50 {
				_, _ = fmt.Fprintf(w, "writer %d line %d\n", i, j)
				_ = w.Last(10)
			}
		}()
	}

	wg.Wait()

	assert.Contains(t, w.Last(0), "line 49")
}
