package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - ids, titles
	colorGreen  = lipgloss.Color("35")  // Green - success, applied
	colorYellow = lipgloss.Color("220") // Amber - warnings, dropped
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for board titles and headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for element and board ids.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for paths, digests and other muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for counts.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleWarning for warnings and status lines in the browser.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
	styleKey     = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleApplied = lipgloss.NewStyle().Foreground(colorGreen)
	styleDropped = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Status Output
// =============================================================================

// statusOut receives status lines. Command results go to CLI.stdout, so
// status never mixes into a board or SVG written to stdout.
var statusOut io.Writer = os.Stderr

type icon struct {
	glyph string
	style lipgloss.Style
}

var (
	iconSuccess = icon{"✓", lipgloss.NewStyle().Foreground(colorGreen)}
	iconError   = icon{"✗", lipgloss.NewStyle().Foreground(colorRed)}
	iconWarning = icon{"!", lipgloss.NewStyle().Foreground(colorYellow)}
	iconInfo    = icon{"›", lipgloss.NewStyle().Foreground(colorGray)}
	iconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
)

const iconArrow = "→"

func status(i icon, msg string) {
	fmt.Fprintln(statusOut, i.style.Render(i.glyph)+" "+msg)
}

func printSuccess(format string, args ...any) { status(iconSuccess, fmt.Sprintf(format, args...)) }
func printError(format string, args ...any)   { status(iconError, fmt.Sprintf(format, args...)) }
func printInfo(format string, args ...any)    { status(iconInfo, fmt.Sprintf(format, args...)) }

func printWarning(format string, args ...any) {
	status(iconWarning, StyleWarning.Render(fmt.Sprintf(format, args...)))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(statusOut, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints the destination of a written file.
func printFile(path string) {
	fmt.Fprintln(statusOut, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(statusOut, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// printKeyValue writes a labeled value to w.
func printKeyValue(w io.Writer, key, value string) {
	fmt.Fprintln(w, styleKey.Render(key)+" "+StyleValue.Render(value))
}

// batchSummary describes a batch outcome, e.g. "3 applied, 1 dropped".
func batchSummary(applied, dropped int) string {
	parts := []string{styleApplied.Render(fmt.Sprintf("%d applied", applied))}
	if dropped > 0 {
		parts = append(parts, styleDropped.Render(fmt.Sprintf("%d dropped", dropped)))
	}
	return strings.Join(parts, ", ")
}
