// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/vsbatch/internal/progress"
	"github.com/matt-FFFFFF/vsbatch/internal/runbatch"
)

// ErrTUI is returned when the terminal interface fails.
var ErrTUI = errors.New("terminal interface failed")

var _ progress.Reporter = (*Reporter)(nil)

// Reporter implements progress.Reporter and forwards events to the TUI.
type Reporter struct {
	program *tea.Program
	closed  bool
	mutex   sync.RWMutex
}

// NewReporter creates a new TUI progress reporter.
func NewReporter(program *tea.Program) *Reporter {
	return &Reporter{
		program: program,
	}
}

// Report implements progress.Reporter.
func (tr *Reporter) Report(event progress.Event) {
	tr.mutex.RLock()
	defer tr.mutex.RUnlock()

	if tr.closed || tr.program == nil {
		return
	}

	tr.program.Send(ProgressEventMsg{Event: event})
}

// Close implements progress.Reporter.
func (tr *Reporter) Close() {
	tr.mutex.Lock()
	defer tr.mutex.Unlock()

	tr.closed = true
}

// Runner manages the TUI application and its progress reporter.
type Runner struct {
	model    *Model
	program  *tea.Program
	reporter *Reporter
}

// NewRunner creates a TUI runner. halt is called when the user quits before the batch has
// finished. The program stops when ctx is cancelled.
func NewRunner(ctx context.Context, title string, halt func(), opts ...tea.ProgramOption) *Runner {
	model := NewModel(title, halt)
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	program := tea.NewProgram(model, opts...)

	return &Runner{
		model:    model,
		program:  program,
		reporter: NewReporter(program),
	}
}

// QuitWhenDone closes the interface as soon as the batch has finished instead of waiting for
// the user.
func (r *Runner) QuitWhenDone() {
	r.model.quitWhenDone = true
}

// Run starts the TUI and calls run with a reporter that feeds it.
// It returns once both the batch and the TUI have finished.
func (r *Runner) Run(run func(progress.Reporter) (*runbatch.Result, error)) (*runbatch.Result, error) {
	type outcome struct {
		res *runbatch.Result
		err error
	}

	done := make(chan outcome, 1)

	go func() {
		res, err := run(r.reporter)
		// Send returns immediately once the program has exited.
		r.program.Send(BatchDoneMsg{Result: res})
		done <- outcome{res: res, err: err}
	}()

	_, tuiErr := r.program.Run()

	r.reporter.Close()

	out := <-done
	if out.err != nil {
		return out.res, out.err
	}

	if tuiErr != nil && !errors.Is(tuiErr, tea.ErrProgramKilled) {
		return out.res, errors.Join(ErrTUI, tuiErr)
	}

	return out.res, nil
}
