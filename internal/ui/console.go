// Package ui renders console output and interactive prompts.
package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	addStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	upToDateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	removeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	indexStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// Console writes user-facing messages. Writers are injectable so tests
// can capture output.
type Console struct {
	Out io.Writer
	Err io.Writer
}

// NewConsole returns a Console bound to stdout and stderr.
func NewConsole() *Console {
	return &Console{Out: os.Stdout, Err: os.Stderr}
}

// Added prints `+ name@version` for a new or updated installation.
func (c *Console) Added(name, version string) {
	fmt.Fprintf(c.Out, "%s %s@%s\n", addStyle.Render("+"), name, version)
}

// UpToDate prints `= name@version` for the no-op path.
func (c *Console) UpToDate(name, version string) {
	fmt.Fprintf(c.Out, "%s %s@%s\n", upToDateStyle.Render("="), name, version)
}

// Removed prints `- name` for a removal.
func (c *Console) Removed(name string) {
	fmt.Fprintf(c.Out, "%s %s\n", removeStyle.Render("-"), name)
}

// Infof prints a plain message.
func (c *Console) Infof(format string, args ...any) {
	fmt.Fprintf(c.Out, format+"\n", args...)
}

// Warnf prints a warning to stderr.
func (c *Console) Warnf(format string, args ...any) {
	fmt.Fprintf(c.Err, "%s %s\n", warnStyle.Render("warning:"), fmt.Sprintf(format, args...))
}

// Errorf prints an error to stderr.
func (c *Console) Errorf(format string, args ...any) {
	fmt.Fprintf(c.Err, "%s %s\n", errorStyle.Render("error:"), fmt.Sprintf(format, args...))
}

// StdinChooser asks the user to pick an asset by index from an
// enumerated list.
type StdinChooser struct {
	In  io.Reader
	Out io.Writer
}

// NewStdinChooser returns a chooser bound to stdin and stdout.
func NewStdinChooser() *StdinChooser {
	return &StdinChooser{In: os.Stdin, Out: os.Stdout}
}

// Choose prints the names with indexes and blocks reading one index.
func (c *StdinChooser) Choose(names []string) (int, error) {
	for i, name := range names {
		fmt.Fprintf(c.Out, "%s: %s\n", indexStyle.Render(strconv.Itoa(i)), name)
	}
	answer, err := prompt(c.In, c.Out, "Failed to match assets, please select one: ")
	if err != nil {
		return 0, err
	}
	idx, err := strconv.Atoi(answer)
	if err != nil {
		return 0, fmt.Errorf("reading selection: %w", err)
	}
	return idx, nil
}

// Prompt asks the user for a line of input on stdin.
func Prompt(msg string) (string, error) {
	return prompt(os.Stdin, os.Stdout, msg)
}

func prompt(in io.Reader, out io.Writer, msg string) (string, error) {
	fmt.Fprint(out, msg)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
