package util

import (
	"fmt"
)

// FormatDuration renders a number of seconds: "45s", "2m5s", or "1h1m".
// Seconds are dropped once hours are shown.
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm%ds", seconds/60, seconds%60)
	default:
		return fmt.Sprintf("%dh%dm", seconds/3600, (seconds%3600)/60)
	}
}

// FormatHours renders fractional hours with two decimals, e.g. "1.50h".
func FormatHours(hours float64) string {
	return fmt.Sprintf("%.2fh", hours)
}

// FormatPercent renders a percentage with one decimal, e.g. "62.5%".
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatNumber renders an integer with thousands separators.
func FormatNumber(n int) string {
	s := fmt.Sprintf("%d", n)
	neg := false
	if n < 0 {
		neg = true
		s = s[1:]
	}
	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}

	var result []byte
	for i, digit := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, digit)
	}
	if neg {
		return "-" + string(result)
	}
	return string(result)
}
