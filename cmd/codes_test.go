package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodesListCmd(t *testing.T) {
	dir := t.TempDir()
	codesFile := filepath.Join(dir, "codes.txt")
	require.NoError(t, os.WriteFile(codesFile, []byte("# list\ntheme\nidea\n"), 0o644))

	cmd := newCodesListCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{codesFile})

	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "theme")
	assert.Contains(t, out, "idea")
	assert.Contains(t, out, "2 code(s)")
}

func TestCodesRegenerateCmd(t *testing.T) {
	dir := t.TempDir()
	codesFile := filepath.Join(dir, "codes.txt")
	codedDir := filepath.Join(dir, "coded")
	require.NoError(t, os.WriteFile(codesFile, []byte("theme\nidea\n"), 0o644))

	cmd := newCodesRegenerateCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{codesFile, codedDir})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "created 2 file(s)")

	raw, err := os.ReadFile(filepath.Join(codedDir, "theme.md"))
	require.NoError(t, err)
	assert.Equal(t, "# theme\n\n", string(raw))
}

func TestCodesRegenerateCmd_EmptyListErrors(t *testing.T) {
	dir := t.TempDir()
	codesFile := filepath.Join(dir, "codes.txt")
	require.NoError(t, os.WriteFile(codesFile, []byte("# only comments\n"), 0o644))

	cmd := newCodesRegenerateCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{codesFile, filepath.Join(dir, "coded")})

	assert.ErrorContains(t, cmd.Execute(), "no codes found")
}

func TestRootCmd_Help(t *testing.T) {
	cmd := newRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "coded passages")
}
