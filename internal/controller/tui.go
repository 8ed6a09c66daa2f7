package controller

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"

	m "github.com/structur-io/structur/internal/model"
)

// TUI implements UI using Bubble Tea for interactive display.
type TUI struct {
	output  io.Writer
	program *tea.Program
	done    chan error
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// Start launches the Bubble Tea program and announces the run size.
func (t *TUI) Start(total int) error {
	t.program = tea.NewProgram(newRunModel(), tea.WithOutput(t.output), tea.WithAltScreen())
	t.done = make(chan error, 1)

	go func() {
		_, err := t.program.Run()
		t.done <- err
	}()

	t.program.Send(runStartMsg{total: total})

	return nil
}

// DocumentStarted marks a document as in flight.
func (t *TUI) DocumentStarted(id string) {
	if t.program == nil {
		return
	}

	t.program.Send(startDocMsg{id: id})
}

// DocumentCompleted records the outcome of one document.
func (t *TUI) DocumentCompleted(id string, result m.ProcessingResult) {
	if t.program == nil {
		return
	}

	t.program.Send(completedDocMsg{
		id:     id,
		state:  result.State,
		coded:  len(result.Coded),
		dups:   len(result.Duplicates),
		seen:   len(result.AlreadyCoded),
		broken: len(result.Malformed),
		reason: result.FailureReason,
	})
}

// DisplaySummary switches the TUI to the summary view and blocks until the
// user dismisses it.
func (t *TUI) DisplaySummary(stats m.RunStats) error {
	if t.program == nil {
		return nil
	}

	t.program.Send(summaryMsg{stats: stats})

	return <-t.done
}

// Close finalizes the UI.
func (t *TUI) Close() {
	if t.program == nil {
		return
	}

	t.program.Quit()

	select {
	case <-t.done:
	default:
	}

	t.program = nil
}
