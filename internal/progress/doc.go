// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package progress carries job lifecycle events from the runner to whoever displays them:
// the log listener in plain mode, or the job board in interactive mode.
package progress
