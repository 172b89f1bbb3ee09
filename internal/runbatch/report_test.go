// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"bytes"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, abortedResult()))

	var rep Report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &rep))

	assert.Equal(t, "run-1", rep.RunID)
	assert.Equal(t, "aborted", rep.State)
	assert.Equal(t, 1, rep.FailedIndex)
	assert.Equal(t, "exit code 2", rep.Cause)
	require.Len(t, rep.Jobs, 3)

	assert.Equal(t, "succeeded", rep.Jobs[0].Status)
	assert.Equal(t, "1.5s", rep.Jobs[0].Duration)
	assert.Equal(t, []string{"vsearch", "--shuffle", "in-0.fa"}, rep.Jobs[0].Command)

	assert.Equal(t, "failed", rep.Jobs[1].Status)
	assert.Equal(t, 2, rep.Jobs[1].ExitCode)
	assert.Equal(t, "exit code 2", rep.Jobs[1].Error)

	assert.Equal(t, "skipped", rep.Jobs[2].Status)
	assert.Empty(t, rep.Jobs[2].Duration)
	assert.Equal(t, "out/in-2.fa", rep.Jobs[2].Output)
}

func TestWriteYAML_WriterError(t *testing.T) {
	require.ErrorIs(t, WriteYAML(errWriter{}, abortedResult()), ErrWriteReport)
}
