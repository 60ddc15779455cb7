package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestConsole() (*Console, *strings.Builder, *strings.Builder) {
	var out, errOut strings.Builder
	return &Console{Out: &out, Err: &errOut}, &out, &errOut
}

func TestConsole_Added(t *testing.T) {
	c, out, _ := newTestConsole()
	c.Added("foo", "v1.2.3")
	require.Contains(t, out.String(), "foo@v1.2.3")
	require.Contains(t, out.String(), "+")
}

func TestConsole_UpToDate(t *testing.T) {
	c, out, _ := newTestConsole()
	c.UpToDate("foo", "v1.2.3")
	require.Contains(t, out.String(), "foo@v1.2.3")
	require.Contains(t, out.String(), "=")
}

func TestConsole_Removed(t *testing.T) {
	c, out, _ := newTestConsole()
	c.Removed("foo")
	require.Contains(t, out.String(), "foo")
	require.Contains(t, out.String(), "-")
}

func TestConsole_ErrorfGoesToStderr(t *testing.T) {
	c, out, errOut := newTestConsole()
	c.Errorf("update %s failed", "foo")
	require.Empty(t, out.String())
	require.Contains(t, errOut.String(), "error:")
	require.Contains(t, errOut.String(), "update foo failed")
}

func TestStdinChooser_ReadsIndex(t *testing.T) {
	var out strings.Builder
	chooser := &StdinChooser{In: strings.NewReader("1\n"), Out: &out}

	idx, err := chooser.Choose([]string{"a.bin", "b.bin"})
	require.NoError(t, err)
	require.Equal(t, 1, idx)
	require.Contains(t, out.String(), "0: a.bin")
	require.Contains(t, out.String(), "1: b.bin")
}

func TestStdinChooser_NonNumericInput(t *testing.T) {
	var out strings.Builder
	chooser := &StdinChooser{In: strings.NewReader("first\n"), Out: &out}

	_, err := chooser.Choose([]string{"a.bin", "b.bin"})
	require.Error(t, err)
}

func TestStdinChooser_InputWithoutTrailingNewline(t *testing.T) {
	var out strings.Builder
	chooser := &StdinChooser{In: strings.NewReader("0"), Out: &out}

	idx, err := chooser.Choose([]string{"a.bin", "b.bin"})
	require.NoError(t, err)
	require.Equal(t, 0, idx)
}
