package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func runProcess(t *testing.T, args ...string) string {
	t.Helper()

	cmd := newProcessCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append(args, "--no-tty"))

	require.NoError(t, cmd.Execute())

	return buf.String()
}

func TestProcessCmd_EndToEnd(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "results")

	writeDoc(t, in, "a.md", "Intro prose.\n\n{{theme}}==Alpha passage.=={{theme}}\n\nMore prose.")
	writeDoc(t, in, "b.md", "{{theme}}==Alpha passage.=={{theme}}\n\n{{broken}}==never closed")

	output := runProcess(t, in, out)
	assert.Contains(t, output, "processing 2 document(s)")

	coded, err := os.ReadFile(filepath.Join(out, "coded", "theme.md"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(coded), "Alpha passage."))

	uncoded, err := os.ReadFile(filepath.Join(out, "uncoded", "a.md"))
	require.NoError(t, err)
	assert.Contains(t, string(uncoded), "Intro prose.")
	assert.NotContains(t, string(uncoded), "Alpha passage.")

	dups, err := os.ReadFile(filepath.Join(out, "duplicates", "b.md"))
	require.NoError(t, err)
	assert.Contains(t, string(dups), "first seen: a.md (theme)")

	malformed, err := os.ReadFile(filepath.Join(out, "malformed", "b.md"))
	require.NoError(t, err)
	assert.Contains(t, string(malformed), "never closed")

	original, err := os.ReadFile(filepath.Join(out, "originals", "a.md"))
	require.NoError(t, err)
	assert.Contains(t, string(original), "{{theme}}==Alpha passage.=={{theme}}")

	_, err = os.Stat(filepath.Join(out, ".structur", "seen.tsv"))
	assert.NoError(t, err)
}

func TestProcessCmd_RerunRoutesToAlreadyCoded(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "results")

	writeDoc(t, in, "a.md", "{{theme}}==Alpha passage.=={{theme}}")

	runProcess(t, in, out)
	runProcess(t, in, out)

	coded, err := os.ReadFile(filepath.Join(out, "coded", "theme.md"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(coded), "Alpha passage."))

	already, err := os.ReadFile(filepath.Join(out, "already_coded", "a.md"))
	require.NoError(t, err)
	assert.Contains(t, string(already), "Alpha passage.")
}

func TestProcessCmd_FilterCodes(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "results")

	writeDoc(t, in, "a.md", "{{keep}}==Wanted.=={{keep}} {{drop}}==Unwanted.=={{drop}}")

	runProcess(t, in, out, "--filter-codes", "keep")

	_, err := os.Stat(filepath.Join(out, "coded", "keep.md"))
	assert.NoError(t, err)

	_, err = os.Stat(filepath.Join(out, "coded", "drop.md"))
	assert.True(t, os.IsNotExist(err))

	uncoded, err := os.ReadFile(filepath.Join(out, "uncoded", "a.md"))
	require.NoError(t, err)
	assert.Contains(t, string(uncoded), "{{drop}}==Unwanted.=={{drop}}")
}

func TestProcessCmd_StyleSeparation(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "results")

	writeDoc(t, in, "a.md", "{{x}}==Brace body.=={{x}}\n\n[[x]]==Bracket body.==[[x]]")

	runProcess(t, in, out)

	brace, err := os.ReadFile(filepath.Join(out, "coded", "x.md"))
	require.NoError(t, err)
	assert.Contains(t, string(brace), "Brace body.")
	assert.NotContains(t, string(brace), "Bracket body.")

	bracket, err := os.ReadFile(filepath.Join(out, "coded", "x.bracket.md"))
	require.NoError(t, err)
	assert.Contains(t, string(bracket), "Bracket body.")
}

func TestProcessCmd_RequiresArgs(t *testing.T) {
	cmd := newProcessCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"only-one"})

	assert.Error(t, cmd.Execute())
}
