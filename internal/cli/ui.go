package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - links
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleLink for URLs.
	StyleLink = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	// StyleError for failures.
	StyleError = lipgloss.NewStyle().Foreground(colorRed)

	styleKey = lipgloss.NewStyle().Foreground(colorGray).Width(12)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Println(StyleSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Println(StyleError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	fmt.Println(styleKey.Render(key) + " " + StyleValue.Render(value))
}

// =============================================================================
// Stats Display
// =============================================================================

// printReplayStats prints the outcome of a replay on a single line.
func printReplayStats(s replayStats, instances, edges int) {
	parts := []string{
		fmt.Sprintf("%d items", s.items),
		fmt.Sprintf("%d passes", s.passes),
		fmt.Sprintf("%d instances", instances),
		fmt.Sprintf("%d edges", edges),
	}
	if s.rebuilds > 0 {
		parts = append(parts, fmt.Sprintf("%d rebuilds", s.rebuilds))
	}
	line := "  " + StyleDim.Render(strings.Join(parts, " · "))
	if s.refused > 0 {
		line += StyleDim.Render(" · ") + StyleWarning.Render(fmt.Sprintf("%d refused", s.refused))
	}
	fmt.Println(line)
}
