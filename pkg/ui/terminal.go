// Package ui provides terminal output for the likes archiver
package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Banner printed at the start of a run
const Banner = "tumblrlikes · liked posts archiver"

var (
	accent  = lipgloss.Color("#00B8D4")
	good    = lipgloss.Color("#39FF14")
	bad     = lipgloss.Color("#FF3B3B")
	caution = lipgloss.Color("#FF9F1C")
	muted   = lipgloss.Color("#8A8A8A")

	bannerStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFF00"))

	successStyle = lipgloss.NewStyle().
			Foreground(good).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(bad).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(caution).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(muted).
			Faint(true)
)

var (
	outMu sync.Mutex
	out   io.Writer = os.Stdout
	quiet bool
)

// SetOutput redirects all terminal output; nil restores stdout
func SetOutput(w io.Writer) {
	outMu.Lock()
	defer outMu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	out = w
}

// SetQuiet suppresses info, success and progress output. Errors and
// warnings are still printed.
func SetQuiet(q bool) {
	outMu.Lock()
	defer outMu.Unlock()
	quiet = q
}

// IsQuiet reports whether quiet mode is on
func IsQuiet() bool {
	outMu.Lock()
	defer outMu.Unlock()
	return quiet
}

func write(always bool, s string) {
	outMu.Lock()
	defer outMu.Unlock()
	if quiet && !always {
		return
	}
	fmt.Fprintln(out, s)
}

// Dim renders s in the muted style
func Dim(s string) string {
	return dimStyle.Render(s)
}

// PrintBanner prints the run banner
func PrintBanner() {
	write(false, bannerStyle.Render(Banner))
}

// PrintError prints an error line, with err appended when given
func PrintError(msg string, err error) {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	write(true, errorStyle.Render("✗ "+msg))
}

// PrintSuccess prints a success line
func PrintSuccess(msg string) {
	write(false, successStyle.Render("✓ "+msg))
}

// PrintInfo prints a label/value pair
func PrintInfo(label, value string) {
	write(false, labelStyle.Render(label+":")+" "+valueStyle.Render(value))
}

// PrintWarning prints a warning line
func PrintWarning(msg string) {
	write(true, warningStyle.Render("⚠ "+msg))
}
