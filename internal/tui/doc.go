// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tui provides a real-time Terminal User Interface (TUI) for monitoring a batch run.
// It shows one row per job with a status indicator, its elapsed time and the error of failed
// jobs, fed by the progress events the runner emits.
//
// Quitting before the batch has finished halts dispatch; running jobs still complete.
package tui
