// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package color

import (
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/term"
)

const (
	// NoColor is the environment variable that disables color output.
	NoColor = "NO_COLOR"
	// ForceColor is the environment variable that forces color output.
	ForceColor = "FORCE_COLOR"

	reset     = "\033[0m"
	prefix    = "\033["
	suffix    = "m"
	sbPadding = 16
)

// Code represents an ANSI control code for text formatting.
type Code int

// Control codes for text formatting.
const (
	Reset Code = 0
	Bold  Code = 1
	Faint Code = 2
)

// Foreground text colors.
const (
	FgBlack Code = iota + 30
	FgRed
	FgGreen
	FgYellow
	FgBlue
	FgMagenta
	FgCyan
	FgWhite
)

// Foreground Hi-Intensity text colors.
const (
	FgHiBlack Code = iota + 90
	FgHiRed
	FgHiGreen
	FgHiYellow
	FgHiBlue
	FgHiMagenta
	FgHiCyan
	FgHiWhite
)

var enabled atomic.Bool

func init() {
	enabled.Store(isColorCapable())
}

// Enabled reports whether color output is enabled.
//
// It is initialised from the environment: NO_COLOR disables color, FORCE_COLOR enables it,
// otherwise color is used when stdout is a terminal.
func Enabled() bool {
	return enabled.Load()
}

// SetEnabled overrides the detected color support, e.g. for a --no-color flag or in tests.
func SetEnabled(v bool) {
	enabled.Store(v)
}

// ControlString returns the escape sequence for the given codes, or an empty string if
// color output is disabled.
func ControlString(c ...Code) string {
	if !Enabled() {
		return ""
	}

	return sequence(c)
}

// Colorize wraps str with the escape sequence for the given codes and a trailing reset.
func Colorize(str string, c ...Code) string {
	if !Enabled() {
		return str
	}

	sb := strings.Builder{}
	sb.Grow(len(str) + len(reset) + sbPadding)
	sb.WriteString(sequence(c))
	sb.WriteString(str)
	sb.WriteString(reset)

	return sb.String()
}

func sequence(c []Code) string {
	parts := make([]string, len(c))
	for i, code := range c {
		parts[i] = strconv.Itoa(int(code))
	}

	return prefix + strings.Join(parts, ";") + suffix
}

func isColorCapable() bool {
	if os.Getenv(NoColor) != "" {
		return false
	}

	if os.Getenv(ForceColor) != "" {
		return true
	}

	return term.IsTerminal(int(os.Stdout.Fd()))
}
