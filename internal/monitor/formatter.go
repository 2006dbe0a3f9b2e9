package monitor

import (
	"fmt"
	"strconv"
	"time"
)

// FormatRate renders a per-minute request rate.
func FormatRate(perMinute float64) string {
	return strconv.FormatFloat(perMinute, 'f', 1, 64) + " req/min"
}

// FormatLatency renders a latency given in seconds, switching to
// microseconds or milliseconds below one second.
func FormatLatency(seconds float64) string {
	switch {
	case seconds > 0 && seconds < 1e-3:
		return fmt.Sprintf("%.0fµs", seconds*1e6)
	case seconds < 1:
		return fmt.Sprintf("%.1fms", seconds*1e3)
	default:
		return fmt.Sprintf("%.2fs", seconds)
	}
}

// FormatRatio renders a 0-1 ratio as a percentage.
func FormatRatio(ratio float64) string {
	return strconv.FormatFloat(ratio*100, 'f', 1, 64) + "%"
}

var byteUnits = []struct {
	size float64
	name string
}{
	{1 << 30, "GB"},
	{1 << 20, "MB"},
	{1 << 10, "KB"},
}

// FormatBytes renders a byte count with a binary unit.
func FormatBytes(n float64) string {
	for _, u := range byteUnits {
		if n >= u.size {
			return fmt.Sprintf("%.1f %s", n/u.size, u.name)
		}
	}
	return fmt.Sprintf("%.0f B", n)
}

// FormatUptime renders a duration at minute resolution: "3d 4h", "2h 15m", "7m".
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int(d / (24 * time.Hour))
	hours := int(d/time.Hour) % 24
	minutes := int(d/time.Minute) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

// FormatCount renders a counter compactly: 950, 12.3k, 4.5M.
func FormatCount(n float64) string {
	switch {
	case n >= 1e6:
		return fmt.Sprintf("%.1fM", n/1e6)
	case n >= 1e4:
		return fmt.Sprintf("%.1fk", n/1e3)
	default:
		return fmt.Sprintf("%.0f", n)
	}
}
