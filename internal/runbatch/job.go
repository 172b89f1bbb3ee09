// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"slices"
	"strings"
)

// JobSpec is one external tool invocation. It is immutable once created.
type JobSpec struct {
	executable string
	args       []string
	input      string
	output     string
}

// NewJobSpec creates a JobSpec. Args are copied.
// Input and output are recorded for reporting only; they are not added to the arguments.
func NewJobSpec(executable string, args []string, input, output string) JobSpec {
	return JobSpec{
		executable: executable,
		args:       slices.Clone(args),
		input:      input,
		output:     output,
	}
}

// Executable returns the path or name of the program to run.
func (j JobSpec) Executable() string {
	return j.executable
}

// Args returns a copy of the arguments, not including the executable.
func (j JobSpec) Args() []string {
	return slices.Clone(j.args)
}

// Input returns the input file the job processes.
func (j JobSpec) Input() string {
	return j.input
}

// Output returns the output file the job writes.
func (j JobSpec) Output() string {
	return j.output
}

// String returns the command line, for logs.
func (j JobSpec) String() string {
	return strings.Join(slices.Concat([]string{j.executable}, j.args), " ")
}

// Batch is an ordered list of jobs from one invocation.
type Batch []JobSpec
