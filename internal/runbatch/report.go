// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"errors"
	"io"
	"time"

	"github.com/goccy/go-yaml"
)

// ErrWriteReport is returned when the YAML report cannot be written.
var ErrWriteReport = errors.New("failed to write report")

// Report is the serialisable form of a Result.
type Report struct {
	RunID       string      `yaml:"run_id"`
	State       string      `yaml:"state"`
	FailedIndex int         `yaml:"failed_index"`
	Cause       string      `yaml:"cause,omitempty"`
	Started     time.Time   `yaml:"started"`
	Finished    time.Time   `yaml:"finished"`
	Jobs        []JobReport `yaml:"jobs"`
}

// JobReport is the serialisable form of a JobResult.
type JobReport struct {
	Index    int      `yaml:"index"`
	Input    string   `yaml:"input"`
	Output   string   `yaml:"output"`
	Command  []string `yaml:"command,flow"`
	Status   string   `yaml:"status"`
	ExitCode int      `yaml:"exit_code,omitempty"`
	Error    string   `yaml:"error,omitempty"`
	Duration string   `yaml:"duration,omitempty"`
}

// NewReport converts res to a Report.
func NewReport(res *Result) Report {
	rep := Report{
		RunID:       res.RunID,
		State:       res.State.String(),
		FailedIndex: res.FailedIndex,
		Started:     res.Started,
		Finished:    res.Finished,
		Jobs:        make([]JobReport, len(res.Jobs)),
	}

	if res.Cause != nil {
		rep.Cause = res.Cause.Error()
	}

	for i, j := range res.Jobs {
		jr := JobReport{
			Index:    j.Index,
			Input:    j.Job.Input(),
			Output:   j.Job.Output(),
			Command:  append([]string{j.Job.Executable()}, j.Job.Args()...),
			Status:   j.Status.String(),
			ExitCode: j.ExitCode,
		}

		if j.Err != nil {
			jr.Error = j.Err.Error()
		}

		if j.Duration > 0 {
			jr.Duration = j.Duration.Round(time.Millisecond).String()
		}

		rep.Jobs[i] = jr
	}

	return rep
}

// WriteYAML writes res to w as a YAML document.
func WriteYAML(w io.Writer, res *Result) error {
	b, err := yaml.Marshal(NewReport(res))
	if err != nil {
		return errors.Join(ErrWriteReport, err)
	}

	if _, err := w.Write(b); err != nil {
		return errors.Join(ErrWriteReport, err)
	}

	return nil
}
