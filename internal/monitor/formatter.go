package monitor

import (
	"fmt"
	"time"

	"github.com/fyrsmithlabs/specflow/internal/state"
)

// FormatPercentage formats a ratio (0-1) as percentage
func FormatPercentage(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

// FormatTasks formats task progress as "done/total tasks"
func FormatTasks(completed, total int) string {
	if total == 0 {
		return "no tasks"
	}
	return fmt.Sprintf("%d/%d tasks", completed, total)
}

// FormatDuration formats duration in seconds to "Xh Ym" or "Xm"
func FormatDuration(seconds int64) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// FormatAge formats the time elapsed since t as "Xs ago", "Xm ago" or
// "Xh Ym ago". A zero time renders as "never".
func FormatAge(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh %dm ago", int(d.Hours()), int(d.Minutes())%60)
	}
}

// StatusSymbol maps a checkpoint status to its table symbol.
func StatusSymbol(status state.Status) string {
	switch status {
	case state.StatusCompleted:
		return "✓"
	case state.StatusFailed:
		return "✗"
	case state.StatusSkipped:
		return "-"
	case state.StatusInProgress:
		return "…"
	default:
		return "·"
	}
}
