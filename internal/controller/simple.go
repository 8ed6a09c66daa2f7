package controller

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "github.com/structur-io/structur/internal/model"
)

// SimpleUI implements UI using cobra Command's output writer.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start announces the run.
func (s *SimpleUI) Start(total int) error {
	s.printf("processing %d document(s)\n", total)

	return nil
}

// DocumentStarted is a no-op for plain output; completion lines carry the
// useful information.
func (s *SimpleUI) DocumentStarted(_ string) {}

// DocumentCompleted prints one line per document.
func (s *SimpleUI) DocumentCompleted(id string, result m.ProcessingResult) {
	if result.State == m.StateFailed {
		s.printf("failed   %s: %s\n", id, result.FailureReason)

		return
	}

	s.printf("done     %s: %d coded, %d duplicate, %d already coded, %d malformed\n",
		id, len(result.Coded), len(result.Duplicates), len(result.AlreadyCoded), len(result.Malformed))
}

// DisplaySummary renders the end-of-run statistics table.
func (s *SimpleUI) DisplaySummary(stats m.RunStats) error {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Bucket", "Words", "% of original"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT})

	rows := []struct {
		name  string
		words int
	}{
		{"coded", stats.Words.Coded},
		{"uncoded", stats.Words.Uncoded},
		{"duplicate", stats.Words.Duplicate},
		{"malformed", stats.Words.Malformed},
	}

	for _, row := range rows {
		table.Append([]string{
			row.name,
			fmt.Sprintf("%d", row.words),
			fmt.Sprintf("%.1f%%", stats.Percent(row.words)),
		})
	}

	table.SetFooter([]string{
		fmt.Sprintf("original %d", stats.Words.Original),
		fmt.Sprintf("%d", stats.Words.Coded+stats.Words.Uncoded+stats.Words.Duplicate+stats.Words.Malformed),
		fmt.Sprintf("diff %d", stats.Words.Difference()),
	})

	table.Render()
	s.printf("\n%s\n", tableBuffer.String())

	s.printf("run %s: %d processed, %d failed, %d coded spans, %d duplicates, %d already coded, %d malformed\n",
		stats.RunID, stats.Processed, stats.Failed, stats.CodedSpans,
		stats.Duplicates, stats.AlreadyCoded, stats.MalformedSpans)

	if len(stats.NewCodes) > 0 {
		s.printf("new codes: %d\n", len(stats.NewCodes))
	}

	if stats.Mismatches > 0 {
		s.printf("warning: %d document(s) did not reconcile word counts\n", stats.Mismatches)
	}

	for _, e := range stats.WriteErrors {
		s.printf("write error: %s\n", e)
	}

	for _, e := range stats.DocFailures {
		s.printf("document failure: %s\n", e)
	}

	return nil
}

// Close finalizes the UI.
func (s *SimpleUI) Close() {}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
