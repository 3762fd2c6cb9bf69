package format

import (
	"fmt"
	"strconv"
	"time"
)

// HumanizeBytes converts a byte count into a human-readable string (e.g., "1.5 MB").
func HumanizeBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit && exp < 3; n /= unit {
		div *= unit
		exp++
	}
	var buf [20]byte
	frac := float64(b) / float64(div)
	s := strconv.AppendFloat(buf[:0], frac, 'f', 1, 64)
	suffix := []string{"KB", "MB", "GB", "TB"}[exp]
	return string(s) + " " + suffix
}

// Megabytes renders a size the way format listings show it: "12.3MB",
// or "unknown size" when the size is not known.
func Megabytes(b int64) string {
	if b <= 0 {
		return "unknown size"
	}
	return fmt.Sprintf("%.1fMB", float64(b)/(1024*1024))
}

// Speed renders a transfer rate in bytes per second, e.g. "1.5 MB/s".
// Unknown (<= 0) rates render as "-".
func Speed(bps float64) string {
	if bps <= 0 {
		return "-"
	}
	return HumanizeBytes(int64(bps)) + "/s"
}

// Clock renders d as H:MM:SS, or M:SS under an hour.
func Clock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d.Round(time.Second) / time.Second)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
