// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/vsbatch/internal/progress"
	"github.com/matt-FFFFFF/vsbatch/internal/runbatch"
)

// JobStatus represents the display state of a job.
type JobStatus int

const (
	StatusPending JobStatus = iota
	StatusRunning
	StatusSuccess
	StatusFailed
	StatusSkipped
	StatusTerminated
)

// String returns a string representation of the job status.
func (s JobStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	case StatusTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// JobRow is one job on the board.
type JobRow struct {
	Index     int
	Label     string
	Status    JobStatus
	StartTime time.Time
	EndTime   time.Time
	ErrorMsg  string
	ExitCode  int
}

// Elapsed returns how long the job ran, or has been running.
func (r *JobRow) Elapsed(now time.Time) time.Duration {
	if r.StartTime.IsZero() {
		return 0
	}

	if r.EndTime.IsZero() {
		return now.Sub(r.StartTime)
	}

	return r.EndTime.Sub(r.StartTime)
}

// Model represents the TUI application state.
// It is only touched by the bubbletea event loop.
type Model struct {
	title     string
	runID     string
	rows      []*JobRow
	width     int
	height    int
	quitting  bool
	completed bool
	result    *runbatch.Result
	halt      func() // Called when the user quits before the batch has finished
	halted    bool

	quitWhenDone bool // Exit as soon as the batch result arrives

	spinner  spinner.Model
	viewport viewport.Model
	styles   *Styles
	now      func() time.Time
}

// Styles contains all the styling for the TUI.
type Styles struct {
	Title      lipgloss.Style
	Pending    lipgloss.Style
	Running    lipgloss.Style
	Success    lipgloss.Style
	Failed     lipgloss.Style
	Skipped    lipgloss.Style
	Terminated lipgloss.Style
	Output     lipgloss.Style
	Error      lipgloss.Style
	Help       lipgloss.Style
	Border     lipgloss.Style
}

// NewStyles creates the default styling for the TUI.
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")),
		Pending: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		Running: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")),
		Failed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")),
		Skipped: lipgloss.NewStyle().
			Foreground(lipgloss.Color("3")),
		Terminated: lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")),
		Output: lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Italic(true),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Italic(true),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")),
	}
}

// NewModel creates a new TUI model. halt may be nil.
func NewModel(title string, halt func()) *Model {
	s := spinner.New(spinner.WithSpinner(spinner.Dot))

	return &Model{
		title:    title,
		halt:     halt,
		spinner:  s,
		viewport: viewport.New(defaultWidth, defaultHeight),
		styles:   NewStyles(),
		now:      time.Now,
	}
}

// Rows returns the job rows in submission order.
func (m *Model) Rows() []*JobRow {
	return m.rows
}

// Completed reports whether the batch has finished.
func (m *Model) Completed() bool {
	return m.completed
}

// row returns the row for index, growing the board when needed.
func (m *Model) row(index int, label string) *JobRow {
	for len(m.rows) <= index {
		m.rows = append(m.rows, &JobRow{Index: len(m.rows)})
	}

	r := m.rows[index]
	if label != "" {
		r.Label = label
	}

	return r
}

// processProgressEvent applies a runner event to the board.
func (m *Model) processProgressEvent(e progress.Event) {
	if e.JobIndex == progress.BatchIndex {
		switch e.Type {
		case progress.EventBatchStarted:
			m.runID = e.RunID
			if e.Total > 0 {
				m.row(e.Total-1, "")
			}
		case progress.EventBatchFinished:
			m.completed = true
		}

		return
	}

	if e.JobIndex < 0 {
		return
	}

	r := m.row(e.JobIndex, e.Label)

	switch e.Type {
	case progress.EventStarted:
		r.Status = StatusRunning
		r.StartTime = e.Timestamp
	case progress.EventCompleted:
		r.Status = StatusSuccess
		r.EndTime = e.Timestamp
	case progress.EventFailed:
		r.Status = StatusFailed
		r.EndTime = e.Timestamp
		r.ExitCode = e.ExitCode

		if e.Err != nil {
			r.ErrorMsg = e.Err.Error()
		}
	case progress.EventTerminated:
		r.Status = StatusTerminated
		r.EndTime = e.Timestamp

		if e.Err != nil {
			r.ErrorMsg = e.Err.Error()
		}
	case progress.EventSkipped:
		r.Status = StatusSkipped
	}
}

func (m *Model) count(status JobStatus) int {
	n := 0

	for _, r := range m.rows {
		if r.Status == status {
			n++
		}
	}

	return n
}
