// Package ui prints the run's console messages.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	leafGreen  = lipgloss.Color("#74AC00")
	sunYellow  = lipgloss.Color("#F2C12E")
	alertRed   = lipgloss.Color("#E0533D")
	skyBlue    = lipgloss.Color("#4FA3D9")
	mutedWhite = lipgloss.Color("#B0B0B0")

	bannerStyle = lipgloss.NewStyle().
			Foreground(leafGreen).
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(leafGreen).
			Padding(0, 2)

	labelStyle = lipgloss.NewStyle().
			Foreground(skyBlue).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(sunYellow)

	successStyle = lipgloss.NewStyle().
			Foreground(leafGreen).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(sunYellow)

	errorStyle = lipgloss.NewStyle().
			Foreground(alertRed).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(mutedWhite)
)

// IsInteractive reports whether w is a terminal
func IsInteractive(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Console writes user-facing lines. Styling is applied only on a terminal,
// and quiet mode drops everything except errors.
type Console struct {
	out    io.Writer
	styled bool
	quiet  bool
}

// NewConsole creates a Console writing to out
func NewConsole(out io.Writer, quiet bool) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{
		out:    out,
		styled: IsInteractive(out),
		quiet:  quiet,
	}
}

func (c *Console) render(style lipgloss.Style, text string) string {
	if !c.styled {
		return text
	}
	return style.Render(text)
}

func (c *Console) line(style *lipgloss.Style, format string, args ...interface{}) {
	if c.quiet {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if style != nil {
		msg = c.render(*style, msg)
	}
	fmt.Fprintln(c.out, msg)
}

// Banner prints the application name and version
func (c *Console) Banner(version string) {
	if c.quiet {
		return
	}
	title := "iNaturalist photo downloader " + version
	if c.styled {
		title = bannerStyle.Render(title)
	}
	fmt.Fprintln(c.out, title)
}

// Println prints a plain message
func (c *Console) Println(format string, args ...interface{}) {
	c.line(nil, format, args...)
}

// PrintSuccess prints a success message in green
func (c *Console) PrintSuccess(format string, args ...interface{}) {
	c.line(&successStyle, format, args...)
}

// PrintWarning prints a warning message in yellow
func (c *Console) PrintWarning(format string, args ...interface{}) {
	c.line(&warningStyle, format, args...)
}

// PrintDim prints secondary information
func (c *Console) PrintDim(format string, args ...interface{}) {
	c.line(&dimStyle, format, args...)
}

// PrintInfo prints a label and value pair
func (c *Console) PrintInfo(label string, value string) {
	if c.quiet {
		return
	}
	fmt.Fprintf(c.out, "%s: %s\n", c.render(labelStyle, label), c.render(valueStyle, value))
}

// PrintError prints an error message in red, even in quiet mode
func (c *Console) PrintError(msg string, err error) {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	fmt.Fprintln(c.out, c.render(errorStyle, msg))
}
