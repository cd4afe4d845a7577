// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatMoney formats a decimal amount as a dollar string.
// e.g., 15.9 -> "$15.90", 1234.5 -> "$1,234.50"
func FormatMoney(d decimal.Decimal) string {
	neg := d.IsNegative()
	abs := d.Abs().Round(2)

	whole := abs.Truncate(0)
	cents := abs.Sub(whole).Mul(decimal.NewFromInt(100)).Round(0)

	s := "$" + FormatNumber(whole.IntPart()) + fmt.Sprintf(".%02d", cents.IntPart())
	if neg {
		return "-" + s
	}
	return s
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-100 percentage value.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.0f%%", f)
}

// FormatFrequency describes a billing cadence from its length in months.
func FormatFrequency(months float64) string {
	switch {
	case months == 0.25:
		return "weekly"
	case months == 0.5:
		return "every 2 weeks"
	case months == 1:
		return "monthly"
	case months == 3:
		return "quarterly"
	case months == 6:
		return "every 6 months"
	case months == 12:
		return "yearly"
	case months < 1:
		return fmt.Sprintf("every %.2g months", months)
	default:
		return fmt.Sprintf("every %.0f months", months)
	}
}

// FormatRelativeTime describes how long ago t was.
// e.g., "just now", "5m ago", "2h ago", "3d ago"
func FormatRelativeTime(t time.Time, now time.Time) string {
	if t.IsZero() {
		return "never"
	}

	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// FormatDuration formats a duration into a compact human string.
// e.g., 3725s -> "1h 2m", 125s -> "2m", 45s -> "45s"
func FormatDuration(d time.Duration) string {
	secs := int64(d.Seconds())
	if secs <= 0 {
		return "0s"
	}

	hours := secs / 3600
	mins := (secs % 3600) / 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	if mins > 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%ds", secs)
}

// FormatMonth formats a YYYY-MM month key for display.
// e.g., "2026-03" -> "Mar 2026"
func FormatMonth(key string) string {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return key
	}
	return t.Format("Jan 2006")
}
