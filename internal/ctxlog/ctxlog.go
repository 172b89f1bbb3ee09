// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

type loggerKey struct{}

// ErrUnknownLevel is returned when a log level string cannot be parsed.
var ErrUnknownLevel = errors.New("unknown log level")

// ErrUnknownFormat is returned when a log format string is not recognised.
var ErrUnknownFormat = errors.New("unknown log format")

// LevelVar holds the level shared by the loggers created in this package.
var LevelVar = &slog.LevelVar{}

// DefaultLogger is the pretty console logger used when the context carries none.
// It writes to stderr so that it does not mix with result output.
var DefaultLogger = NewLogger(FormatPretty, os.Stderr)

// Format selects the handler used by NewLogger.
type Format string

const (
	// FormatPretty is the human readable console format.
	FormatPretty Format = "pretty"
	// FormatJSON emits one JSON object per record.
	FormatJSON Format = "json"
)

func init() {
	LevelVar.Set(levelFromEnv())
}

// NewLogger creates a logger in the given format that honours LevelVar.
func NewLogger(f Format, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: LevelVar}

	if f == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(NewPrettyHandler(opts, WithAutoColour(), WithDestinationWriter(w)))
}

// ParseFormat converts a --log-format value to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPretty, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// New returns a copy of ctx carrying logger.
// If logger is nil, DefaultLogger is used.
func New(ctx context.Context, logger *slog.Logger) context.Context {
	if logger == nil {
		logger = DefaultLogger
	}

	return context.WithValue(ctx, loggerKey{}, logger)
}

// Logger returns the logger from the context, or the default logger if not found.
func Logger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(loggerKey{}).(*slog.Logger)
	if !ok || logger == nil {
		return DefaultLogger
	}

	return logger
}

// Debug logs a debug message with the logger from ctx.
func Debug(ctx context.Context, msg string, args ...any) {
	Logger(ctx).DebugContext(ctx, msg, args...)
}

// Info logs an info message with the logger from ctx.
func Info(ctx context.Context, msg string, args ...any) {
	Logger(ctx).InfoContext(ctx, msg, args...)
}

// Warn logs a warning message with the logger from ctx.
func Warn(ctx context.Context, msg string, args ...any) {
	Logger(ctx).WarnContext(ctx, msg, args...)
}

// Error logs an error message with the logger from ctx.
func Error(ctx context.Context, msg string, args ...any) {
	Logger(ctx).ErrorContext(ctx, msg, args...)
}

// ParseLevel converts DEBUG, INFO, WARN or ERROR (any case) to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelWarn, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
	}
}

// EnvName returns the name of the environment variable that sets the log level.
// It is derived from the executable name, e.g. VSBATCH_LOG_LEVEL.
func EnvName() string {
	exec, _ := os.Executable()
	exec = filepath.Base(exec)
	exec = strings.TrimSuffix(exec, ".exe")
	exec = strings.NewReplacer("-", "_", ".", "_").Replace(exec)

	return strings.ToUpper(exec) + "_LOG_LEVEL"
}

func levelFromEnv() slog.Level {
	lvl, err := ParseLevel(os.Getenv(EnvName()))
	if err != nil {
		return slog.LevelWarn
	}

	return lvl
}
