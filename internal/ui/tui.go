// ABOUTME: TUI initialization and control
// ABOUTME: Runs a conversion job behind a bubbletea progress display
package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ion-space/spaceconvert/pkg/convert"
)

// Reporter forwards conversion progress to a running program
type Reporter struct {
	program *tea.Program
}

var _ convert.ProgressReporter = (*Reporter)(nil)

// NewReporter creates a reporter for p
func NewReporter(p *tea.Program) *Reporter {
	return &Reporter{program: p}
}

// Progress sends a ProgressMsg
func (r *Reporter) Progress(percent int, text string) {
	r.program.Send(ProgressMsg{Percent: percent, Text: text})
}

// Job runs a conversion, reporting to progress
type Job func(ctx context.Context, progress convert.ProgressReporter) (*convert.Result, error)

// Run shows the progress display while job runs and returns the job's outcome
func Run(ctx context.Context, title string, pathOf func(*convert.Result) string, job Job, opts ...tea.ProgramOption) (*convert.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(title, cancel), opts...)

	type outcome struct {
		result *convert.Result
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		res, err := job(ctx, NewReporter(p))
		if err != nil {
			p.Send(ErrorMsg{Err: err})
		} else {
			path := ""
			if pathOf != nil {
				path = pathOf(res)
			}
			p.Send(DoneMsg{Result: res, Path: path})
		}
		done <- outcome{res, err}
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return nil, fmt.Errorf("failed to run TUI: %w", err)
	}

	// The job may still be running if the user quit early
	cancel()
	out := <-done
	return out.result, out.err
}
