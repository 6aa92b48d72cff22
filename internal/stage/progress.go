package stage

import (
	"fmt"
	"time"
)

// ProgressMessage returns the human-readable line shown for a coarse backend status.
func ProgressMessage(status string) string {
	switch normalize(status) {
	case "BUILDING":
		return "AI is generating your application structure..."
	case "DESIGN":
		return "AI generation complete! Preparing for deployment..."
	default:
		return "Processing..."
	}
}

// FormatElapsed renders d as m:ss. Negative durations render as 0:00.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
