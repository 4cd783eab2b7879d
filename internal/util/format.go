// Package util holds small helpers shared by the pipeline: byte and time
// formatting, temp file handling, and disk checks.
package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	KiB = 1024
	MiB = KiB * 1024
	GiB = MiB * 1024
	TiB = GiB * 1024
)

// FormatBytes renders a size using binary units, e.g. "1.50 MiB".
func FormatBytes(n uint64) string {
	v := float64(n)
	switch {
	case v >= TiB:
		return fmt.Sprintf("%.2f TiB", v/TiB)
	case v >= GiB:
		return fmt.Sprintf("%.2f GiB", v/GiB)
	case v >= MiB:
		return fmt.Sprintf("%.2f MiB", v/MiB)
	case v >= KiB:
		return fmt.Sprintf("%.2f KiB", v/KiB)
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// FormatDuration renders elapsed or remaining time compactly: "850ms",
// "4.2s", "3m07s", "1h02m05s". Negative durations render as "?".
func FormatDuration(d time.Duration) string {
	switch {
	case d < 0:
		return "?"
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

// FormatSeconds formats a capture offset the way ffmpeg's -ss accepts it.
func FormatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 3, 64)
}

// ParseFFmpegTime converts the HH:MM:SS.ms timestamp of an ffmpeg progress
// line into seconds.
func ParseFFmpegTime(s string) (float64, bool) {
	fields := strings.Split(s, ":")
	if len(fields) != 3 {
		return 0, false
	}
	var total float64
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || v < 0 {
			return 0, false
		}
		total = total*60 + v
	}
	return total, true
}
