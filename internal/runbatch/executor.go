// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
)

// Executor runs one job to completion. A nil error means the job succeeded.
// Implementations must return when ctx is cancelled.
type Executor interface {
	Execute(ctx context.Context, job JobSpec) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, job JobSpec) error

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, job JobSpec) error {
	return f(ctx, job)
}
