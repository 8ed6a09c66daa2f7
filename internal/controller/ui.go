// Package controller provides output adapters for displaying processing
// progress and run statistics.
package controller

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	m "github.com/structur-io/structur/internal/model"
)

// UI is how the workflow reports progress and results. Implementations can
// use different output methods (plain text, TUI).
type UI interface {
	// Start announces the run and the number of documents queued.
	Start(total int) error
	// DocumentStarted fires before a document enters the pipeline.
	DocumentStarted(id string)
	// DocumentCompleted fires after a document is written or failed.
	DocumentCompleted(id string, result m.ProcessingResult)
	// DisplaySummary renders the end-of-run statistics.
	DisplaySummary(stats m.RunStats) error
	// Close finalizes the UI.
	Close()
}

// NewUI creates a UI based on whether TTY mode is enabled. When useTTY is
// true it returns the Bubble Tea TUI, otherwise the plain-text SimpleUI.
func NewUI(cmd *cobra.Command, useTTY bool) UI {
	if useTTY {
		return NewTUI(cmd.OutOrStdout())
	}

	return NewSimpleUI(cmd)
}

// IsTTY checks whether the writer is an interactive terminal. Redirected
// output (file or pipe) reports false.
func IsTTY(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}

	fileInfo, err := file.Stat()
	if err != nil {
		return false
	}

	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
