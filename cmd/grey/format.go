package main

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/term"
)

// defaultTableWidth is used when stdout is not a terminal.
const defaultTableWidth = 100

// tableWidth returns the usable terminal width for table output.
func tableWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return defaultTableWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return defaultTableWidth
	}
	return w
}

// titleWidth is the column budget for session titles: the terminal width
// minus the fixed columns, clamped to a readable range.
func titleWidth() int {
	w := tableWidth() - 60
	if w < 20 {
		return 20
	}
	if w > 80 {
		return 80
	}
	return w
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// formatTime renders a timestamp for table output.
func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h >= 24 {
		days := h / 24
		h = h % 24
		return fmt.Sprintf("%dd %dh", days, h)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}
