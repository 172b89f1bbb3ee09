// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctxlog carries a log/slog logger in a context.Context.
//
// The level is shared through LevelVar and is initialised from the environment variable
// named after the executable, e.g. VSBATCH_LOG_LEVEL=DEBUG. Unknown or unset values mean WARN.
// The default handler is a pretty console handler; a JSON handler is available for machines.
package ctxlog
