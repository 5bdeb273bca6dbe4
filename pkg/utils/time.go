package utils

import (
	"fmt"
	"time"
)

// FormatDuration formats a duration in human-readable form for log and
// alert messages.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	minutes := d / time.Minute
	seconds := (d % time.Minute) / time.Second
	return fmt.Sprintf("%dm%ds", minutes, seconds)
}
