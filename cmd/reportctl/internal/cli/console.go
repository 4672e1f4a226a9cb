// Package cli holds reportctl's styled terminal output.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Console writes status messages to stderr and results to stdout.
type Console struct {
	out     io.Writer
	err     io.Writer
	isQuiet bool

	Bold   *color.Color
	Green  *color.Color
	Yellow *color.Color
	Red    *color.Color
	Cyan   *color.Color
	Gray   *color.Color
}

// New creates a Console on the process's stdout and stderr.
func New(quiet bool) *Console {
	return NewWithWriters(os.Stdout, os.Stderr, quiet)
}

// NewWithWriters creates a Console on the given writers.
func NewWithWriters(out, err io.Writer, quiet bool) *Console {
	return &Console{
		out:     out,
		err:     err,
		isQuiet: quiet,
		Bold:    color.New(color.Bold),
		Green:   color.New(color.FgGreen),
		Yellow:  color.New(color.FgYellow),
		Red:     color.New(color.FgRed),
		Cyan:    color.New(color.FgCyan),
		Gray:    color.New(color.FgHiBlack),
	}
}

// Out is where command results go.
func (c *Console) Out() io.Writer {
	return c.out
}

// Info prints a standard informational message.
func (c *Console) Info(format string, a ...any) {
	if c.isQuiet {
		return
	}
	fmt.Fprintf(c.err, "%s\n", fmt.Sprintf(format, a...))
}

// Success prints a success message.
func (c *Console) Success(format string, a ...any) {
	if c.isQuiet {
		return
	}
	_, _ = c.Green.Fprintf(c.err, "✓ %s\n", fmt.Sprintf(format, a...))
}

// Warn prints a warning message.
func (c *Console) Warn(format string, a ...any) {
	if c.isQuiet {
		return
	}
	_, _ = c.Yellow.Fprintf(c.err, "! %s\n", fmt.Sprintf(format, a...))
}

// Error prints an error message. Errors are shown even in quiet mode.
func (c *Console) Error(format string, a ...any) {
	_, _ = c.Red.Fprintf(c.err, "✗ %s\n", fmt.Sprintf(format, a...))
}

// Field prints a "label: value" result line.
func (c *Console) Field(label string, value any) {
	fmt.Fprintf(c.out, "%s %v\n", c.Cyan.Sprintf("%-10s", label+":"), value)
}
