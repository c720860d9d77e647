// Package util provides shared string utilities used across the codebase.
package util

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// WrapText word-wraps s to the given column width, trimming trailing
// whitespace from every line. Existing newlines are preserved. Wrapping is
// purely cosmetic, for log and prompt readability.
func WrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	wrapped := ansi.Wordwrap(s, width, "")
	lines := strings.Split(wrapped, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}

// TruncateString truncates a string to maxLen runes, adding "..." if truncated.
// This is a simple truncation that does not account for ANSI escape codes or
// wide characters. For terminal output with styling, use TruncateANSI instead.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 3 {
		return "..."
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

// TruncateANSI truncates a string to maxWidth visual columns, adding "..." if
// truncated. This function properly handles ANSI escape codes and wide
// characters, making it suitable for terminal output with styling.
func TruncateANSI(s string, maxWidth int) string {
	if maxWidth <= 3 {
		return "..."
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	return ansi.Truncate(s, maxWidth, "...")
}
