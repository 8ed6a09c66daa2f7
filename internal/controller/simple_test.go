package controller

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/structur-io/structur/internal/model"
)

func newBufferedCmd() (*cobra.Command, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)

	return cmd, buf
}

func TestSimpleUI_Start(t *testing.T) {
	cmd, buf := newBufferedCmd()
	ui := NewSimpleUI(cmd)

	require.NoError(t, ui.Start(3))
	assert.Contains(t, buf.String(), "processing 3 document(s)")
}

func TestSimpleUI_DocumentCompleted(t *testing.T) {
	t.Run("success line", func(t *testing.T) {
		cmd, buf := newBufferedCmd()
		ui := NewSimpleUI(cmd)

		ui.DocumentCompleted("a.md", m.ProcessingResult{
			State: m.StateWritten,
			Coded: []m.CodeSpan{{Code: "x", Body: "b"}},
		})

		assert.Contains(t, buf.String(), "done")
		assert.Contains(t, buf.String(), "a.md")
		assert.Contains(t, buf.String(), "1 coded")
	})

	t.Run("failure line", func(t *testing.T) {
		cmd, buf := newBufferedCmd()
		ui := NewSimpleUI(cmd)

		ui.DocumentCompleted("bad.md", m.ProcessingResult{
			State:         m.StateFailed,
			FailureReason: "content is not valid UTF-8",
		})

		assert.Contains(t, buf.String(), "failed")
		assert.Contains(t, buf.String(), "not valid UTF-8")
	})
}

func TestSimpleUI_DisplaySummary(t *testing.T) {
	cmd, buf := newBufferedCmd()
	ui := NewSimpleUI(cmd)

	stats := m.RunStats{
		RunID:      "run-1",
		Processed:  2,
		CodedSpans: 3,
		Words: m.WordCounts{
			Original:  100,
			Coded:     60,
			Uncoded:   30,
			Duplicate: 5,
			Malformed: 2,
		},
	}

	require.NoError(t, ui.DisplaySummary(stats))

	out := buf.String()
	assert.Contains(t, out, "coded")
	assert.Contains(t, out, "uncoded")
	assert.Contains(t, out, "duplicate")
	assert.Contains(t, out, "malformed")
	assert.Contains(t, out, "60.0%")
	assert.Contains(t, out, "run-1")
}

func TestSimpleUI_DisplaySummaryWarnings(t *testing.T) {
	cmd, buf := newBufferedCmd()
	ui := NewSimpleUI(cmd)

	stats := m.RunStats{
		Mismatches:  1,
		WriteErrors: []string{"append coded/x.md: disk full"},
		DocFailures: []string{"bad.md: unreadable"},
	}

	require.NoError(t, ui.DisplaySummary(stats))

	out := buf.String()
	assert.Contains(t, out, "did not reconcile")
	assert.Contains(t, out, "disk full")
	assert.Contains(t, out, "bad.md")
}

func TestNewUI(t *testing.T) {
	cmd, _ := newBufferedCmd()

	_, isSimple := NewUI(cmd, false).(*SimpleUI)
	assert.True(t, isSimple)

	_, isTUI := NewUI(cmd, true).(*TUI)
	assert.True(t, isTUI)
}

func TestIsTTY_NonFileWriter(t *testing.T) {
	assert.False(t, IsTTY(&bytes.Buffer{}))
}
