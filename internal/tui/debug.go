package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/clive/todo-tui/internal/todolist"
)

// DebugPanel keeps the most recent sync events for display under the list
type DebugPanel struct {
	enabled bool
	lines   []string
	buffer  int // Max lines to keep
}

// NewDebugPanel creates a new debug panel
func NewDebugPanel(enabled bool) DebugPanel {
	return DebugPanel{
		enabled: enabled,
		buffer:  50,
	}
}

// IsEnabled returns whether debug mode is enabled
func (d *DebugPanel) IsEnabled() bool {
	return d.enabled
}

// AddEvent adds a timestamped "[event] details" line
func (d *DebugPanel) AddEvent(eventType string, details string) {
	if !d.enabled {
		return
	}
	line := time.Now().Format("15:04:05.000") + " [" + eventType + "]"
	if details != "" {
		line += " " + details
	}
	d.lines = append(d.lines, line)
	if len(d.lines) > d.buffer {
		d.lines = d.lines[len(d.lines)-d.buffer:]
	}
}

// AddOutcome records the result of a sync operation
func (d *DebugPanel) AddOutcome(out todolist.Outcome) {
	if !d.enabled {
		return
	}
	var details string
	switch {
	case out.Err != nil:
		details = fmt.Sprintf("%s failed (%s): %v", out.Op, out.Kind(), out.Err)
	case out.Stale:
		details = fmt.Sprintf("%s ok, refresh gen %d dropped as stale", out.Op, out.Generation)
	default:
		details = fmt.Sprintf("%s ok, gen %d, %d tasks", out.Op, out.Applied, len(out.Tasks))
	}
	d.AddEvent("sync", details)
}

// Lines returns the current debug lines
func (d *DebugPanel) Lines() []string {
	return d.lines
}

// Render renders the last height-2 lines inside a bordered box
func (d *DebugPanel) Render(width, height int) string {
	if !d.enabled {
		return ""
	}

	contentHeight := height - 3
	if contentHeight < 1 {
		contentHeight = 1
	}

	start := 0
	if len(d.lines) > contentHeight {
		start = len(d.lines) - contentHeight
	}
	maxLen := width - 4
	if maxLen < 10 {
		maxLen = 10
	}
	var lines []string
	for _, line := range d.lines[start:] {
		lines = append(lines, truncate(line, maxLen))
	}

	title := lipgloss.NewStyle().
		Foreground(ColorYellow).
		Bold(true).
		Render("DEBUG")

	return lipgloss.NewStyle().
		Width(width).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorYellow).
		Padding(0, 1).
		Render(title + "\n" + strings.Join(lines, "\n"))
}
