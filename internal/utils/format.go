package utils

import (
	"fmt"
	"time"

	"hydratutor/internal/constants"
)

func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// FormatLog returns a standardized log string for a backend exchange.
// If emoji is empty, it is automatically selected based on the status code.
func FormatLog(emoji string, method string, statusCode int, path string) string {
	if emoji == "" {
		if statusCode >= 200 && statusCode < 300 {
			emoji = "✅"
		} else if statusCode >= 400 || statusCode == 0 {
			emoji = "❌"
		} else {
			emoji = "🔄"
		}
	}

	return fmt.Sprintf("  %s %s%s %d %s%s\n",
		emoji,
		constants.ColorDim,
		method,
		statusCode,
		path,
		constants.ColorReset,
	)
}
