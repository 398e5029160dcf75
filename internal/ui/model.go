// ABOUTME: Bubbletea model for conversion progress
// ABOUTME: Shows the job title, a progress bar, the current step and the result
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ion-space/spaceconvert/pkg/convert"
)

const boxWidth = 54

// Model represents the TUI state
type Model struct {
	title   string
	percent int
	step    string

	result *convert.Result
	path   string
	err    error

	cancel   context.CancelFunc
	quitting bool

	width int
}

// NewModel creates a model for a job. cancel is called when the user quits early.
func NewModel(title string, cancel context.CancelFunc) Model {
	return Model{
		title:  title,
		step:   "Starting...",
		cancel: cancel,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case ProgressMsg:
		m.percent = clampPercent(msg.Percent)
		m.step = msg.Text
	case DoneMsg:
		m.result = msg.Result
		m.path = msg.Path
		m.percent = 100
		return m, tea.Quit
	case ErrorMsg:
		m.err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	var b strings.Builder

	b.WriteString("┌─ SpaceConvert ───────────────────────────────────────┐\n")
	b.WriteString(line("Job: " + truncate(m.title, boxWidth-7)))
	b.WriteString(line(""))
	b.WriteString(line(fmt.Sprintf("[%s] %3d%%", renderBar(m.percent, 100, 40), m.percent)))
	b.WriteString(line(truncate(m.step, boxWidth-2)))

	switch {
	case m.err != nil:
		b.WriteString(line(""))
		b.WriteString(line(truncate(convert.FallbackMessage(m.err), boxWidth-2)))
	case m.result != nil:
		b.WriteString(line(""))
		b.WriteString(line(truncate(fmt.Sprintf("Saved %s (%d bytes, %v)", m.result.FileName, m.result.Size, m.result.Duration), boxWidth-2)))
	case m.quitting:
		b.WriteString(line(""))
		b.WriteString(line("Cancelling..."))
	}

	b.WriteString("├──────────────────────────────────────────────────────┤\n")
	b.WriteString(line("q:Cancel"))
	b.WriteString("└──────────────────────────────────────────────────────┘\n")

	return b.String()
}

// Result returns the delivered result, if any
func (m Model) Result() *convert.Result {
	return m.result
}

// Err returns the job error, if any
func (m Model) Err() error {
	return m.err
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		if m.cancel != nil {
			m.cancel()
		}
		if m.err == nil && m.result == nil {
			m.err = context.Canceled
		}
		return m, tea.Quit
	}

	return m, nil
}

// ProgressMsg reports a pipeline step
type ProgressMsg struct {
	Percent int
	Text    string
}

// DoneMsg reports a delivered file
type DoneMsg struct {
	Result *convert.Result
	Path   string
}

// ErrorMsg reports a failed job
type ErrorMsg struct {
	Err error
}

// IsCancelled reports whether err came from the user quitting
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}

func line(s string) string {
	return fmt.Sprintf("│ %-*s │\n", boxWidth-2, s)
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func renderBar(value, max, width int) string {
	filled := (value * width) / max
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}
