// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/vsbatch/internal/progress"
	"github.com/matt-FFFFFF/vsbatch/internal/runbatch"
)

const (
	defaultWidth     = 80
	defaultHeight    = 20
	reservedLines    = 7 // title, border, status bar and help
	minViewportWidth = 20
	ellipsis         = "..."
	durationRounding = 100 * time.Millisecond
)

// ProgressEventMsg wraps a progress event for the tea framework.
type ProgressEventMsg struct {
	Event progress.Event
}

// BatchDoneMsg carries the final result once the runner has returned.
type BatchDoneMsg struct {
	Result *runbatch.Result
}

// Init implements bubbletea.Model.Init.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements bubbletea.Model.Update.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = max(msg.Width-2, minViewportWidth)
		m.viewport.Height = max(msg.Height-reservedLines, 1)

		return m, nil

	case ProgressEventMsg:
		m.processProgressEvent(msg.Event)
		return m, nil

	case BatchDoneMsg:
		m.completed = true
		m.result = msg.Result

		if m.quitWhenDone {
			m.quitting = true
			return m, tea.Quit
		}

		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd

		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	return m, nil
}

// handleKeyPress processes keyboard input.
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if !m.completed && m.halt != nil && !m.halted {
			m.halted = true
			m.halt()
		}

		m.quitting = true

		return m, tea.Quit
	}

	// Remaining keys scroll the board.
	var cmd tea.Cmd

	m.viewport, cmd = m.viewport.Update(msg)

	return m, cmd
}

// View implements bubbletea.Model.View.
func (m *Model) View() string {
	if m.quitting {
		if m.halted {
			return "Halting, waiting for running jobs to finish...\n"
		}

		return ""
	}

	var content strings.Builder

	now := m.now()
	for _, r := range m.rows {
		m.renderRow(&content, r, now)
	}

	m.viewport.SetContent(content.String())

	var view strings.Builder

	view.WriteString(m.styles.Title.Render(m.title))

	if m.runID != "" {
		view.WriteString(m.styles.Help.Render("  run " + m.runID))
	}

	view.WriteString("\n")
	view.WriteString(m.styles.Border.Render(m.viewport.View()))
	view.WriteString("\n")
	view.WriteString(m.renderStatusBar())
	view.WriteString("\n")

	help := "↑/↓ to scroll, 'q' to halt and quit"
	if m.completed {
		help = "↑/↓ to scroll, 'q' to quit"
	}

	view.WriteString(m.styles.Help.Render(help))

	return view.String()
}

func (m *Model) renderRow(b *strings.Builder, r *JobRow, now time.Time) {
	var icon, name string

	label := fmt.Sprintf("[%d] %s", r.Index, r.Label)

	switch r.Status {
	case StatusRunning:
		icon = m.spinner.View()
		name = m.styles.Running.Render(label)
	case StatusSuccess:
		icon = "✓"
		name = m.styles.Success.Render(label)
	case StatusFailed:
		icon = "✗"
		name = m.styles.Failed.Render(label)
	case StatusSkipped:
		icon = "~"
		name = m.styles.Skipped.Render(label)
	case StatusTerminated:
		icon = "⊘"
		name = m.styles.Terminated.Render(label)
	default:
		icon = "·"
		name = m.styles.Pending.Render(label)
	}

	left := fmt.Sprintf("%s %s", icon, name)

	if d := r.Elapsed(now); d > 0 {
		left += m.styles.Output.Render(fmt.Sprintf(" (%v)", d.Round(durationRounding)))
	}

	var right string
	if r.Status == StatusFailed && r.ErrorMsg != "" {
		right = m.styles.Error.Render(truncate("Error: "+r.ErrorMsg, m.viewport.Width-lipgloss.Width(left)-2))
	}

	b.WriteString(left)

	if right != "" {
		b.WriteString("  ")
		b.WriteString(right)
	}

	b.WriteString("\n")
}

func (m *Model) renderStatusBar() string {
	parts := []string{
		m.styles.Running.Render(fmt.Sprintf("%d running", m.count(StatusRunning))),
		m.styles.Success.Render(fmt.Sprintf("%d succeeded", m.count(StatusSuccess))),
		m.styles.Failed.Render(fmt.Sprintf("%d failed", m.count(StatusFailed))),
		m.styles.Terminated.Render(fmt.Sprintf("%d terminated", m.count(StatusTerminated))),
		m.styles.Skipped.Render(fmt.Sprintf("%d skipped", m.count(StatusSkipped))),
		m.styles.Pending.Render(fmt.Sprintf("%d pending", m.count(StatusPending))),
	}

	bar := strings.Join(parts, " | ")

	if !m.completed {
		return bar
	}

	aborted := m.count(StatusFailed) > 0 || m.count(StatusSkipped) > 0 || m.count(StatusTerminated) > 0
	if m.result != nil {
		aborted = !m.result.Succeeded()
	}

	if aborted {
		return bar + "\n" + m.styles.Failed.Render("Batch aborted")
	}

	return bar + "\n" + m.styles.Success.Render("Batch completed")
}

func truncate(s string, width int) string {
	if width <= len(ellipsis) {
		return ""
	}

	if len(s) <= width {
		return s
	}

	return s[:width-len(ellipsis)] + ellipsis
}
