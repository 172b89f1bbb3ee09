// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"fmt"
	"io"
	"time"

	"github.com/matt-FFFFFF/vsbatch/internal/color"
)

// OutputOptions controls what is included in the text summary.
type OutputOptions struct {
	ShowSuccess bool // List succeeded jobs as well as failed and skipped ones
	ShowCommand bool // Print the command line under each listed job
}

// DefaultOutputOptions returns a default set of output options.
func DefaultOutputOptions() *OutputOptions {
	return &OutputOptions{}
}

// WriteText writes a human-readable summary of res to w.
func WriteText(w io.Writer, res *Result, options *OutputOptions) error {
	if options == nil {
		options = DefaultOutputOptions()
	}

	for _, j := range res.Jobs {
		if j.Status == JobSucceeded && !options.ShowSuccess {
			continue
		}

		if err := writeJob(w, j, options); err != nil {
			return err
		}
	}

	return writeSummary(w, res)
}

func writeJob(w io.Writer, j JobResult, options *OutputOptions) error {
	var statusStr, labelPrefix string

	switch j.Status {
	case JobSkipped:
		statusStr = color.Colorize("~", color.FgYellow)
		labelPrefix = color.ControlString(color.Bold, color.FgYellow)
	case JobFailed:
		statusStr = color.Colorize("✗", color.FgRed)
		labelPrefix = color.ControlString(color.Bold, color.FgRed)
	case JobTerminated:
		statusStr = color.Colorize("⊘", color.FgMagenta)
		labelPrefix = color.ControlString(color.Bold, color.FgMagenta)
	case JobSucceeded:
		statusStr = color.Colorize("✓", color.FgGreen)
		labelPrefix = color.ControlString(color.Bold, color.FgGreen)
	default:
		statusStr = color.Colorize("?", color.FgWhite)
	}

	label := j.Job.Input()
	if label == "" {
		label = "[unnamed]"
	}

	line := fmt.Sprintf("%s %s[%d] %s%s", statusStr, labelPrefix, j.Index, label, color.ControlString(color.Reset))

	if j.Status == JobSucceeded || j.Status == JobFailed || j.Status == JobTerminated {
		line += fmt.Sprintf(" (%s)", j.Duration.Round(time.Millisecond))
	}

	if j.Status == JobFailed && j.ExitCode > 0 {
		line += fmt.Sprintf(" (exit code: %d)", j.ExitCode)
	}

	if _, err := fmt.Fprintln(w, line); err != nil {
		return err //nolint:wrapcheck
	}

	if j.Err != nil {
		if _, err := fmt.Fprintf(w, "  %s %s\n", color.Colorize("➜ Error:", color.FgRed), j.Err.Error()); err != nil {
			return err //nolint:wrapcheck
		}
	}

	if options.ShowCommand {
		if _, err := fmt.Fprintf(w, "  %s %s\n", color.Colorize("➜ Command:", color.Faint), j.Job.String()); err != nil {
			return err //nolint:wrapcheck
		}
	}

	return nil
}

func writeSummary(w io.Writer, res *Result) error {
	state := color.Colorize(res.State.String(), color.Bold, color.FgGreen)
	if res.State != BatchCompleted {
		state = color.Colorize(res.State.String(), color.Bold, color.FgRed)
	}

	terminated := ""
	if n := res.Count(JobTerminated); n > 0 {
		terminated = fmt.Sprintf(", %d terminated", n)
	}

	_, err := fmt.Fprintf(w, "Batch %s: %d succeeded, %d failed%s, %d skipped of %d jobs\n",
		state,
		res.Count(JobSucceeded),
		res.Count(JobFailed),
		terminated,
		res.Count(JobSkipped),
		len(res.Jobs),
	)

	return err //nolint:wrapcheck
}
