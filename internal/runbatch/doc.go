// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package runbatch runs a batch of independent jobs with bounded concurrency.
//
// At most Limit jobs run at once. The first failed job stops the dispatch of the remaining
// ones; jobs that are already running are allowed to finish unless the InFlightTerminate
// policy is selected. The Result names the failed job with the lowest submission index.
package runbatch
