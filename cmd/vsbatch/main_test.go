// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/matt-FFFFFF/vsbatch"
	"github.com/stretchr/testify/assert"
	"github.com/urfave/cli/v3"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: 0},
		{name: "plain error", err: errors.New("boom"), want: 1},
		{name: "exit coder", err: cli.Exit("job 1 failed", 1), want: 1},
		{name: "custom code", err: cli.Exit("", 3), want: 3},
		{name: "wrapped exit coder", err: fmt.Errorf("run: %w", cli.Exit("x", 2)), want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestVersionIsImportable(t *testing.T) {
	assert.NotEmpty(t, vsbatch.Version)
	assert.NotEmpty(t, vsbatch.Commit)
}
