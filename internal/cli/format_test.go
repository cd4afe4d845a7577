package cli

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFormatMoney(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"15.9", "$15.90"},
		{"16", "$16.00"},
		{"1234.5", "$1,234.50"},
		{"-42.25", "-$42.25"},
		{"15.999", "$16.00"},
		{"15.994", "$15.99"},
		{"-0.005", "-$0.01"},
	}
	for _, tc := range cases {
		got := FormatMoney(decimal.RequireFromString(tc.in))
		if got != tc.want {
			t.Errorf("FormatMoney(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	if got := FormatNumber(1234567); got != "1,234,567" {
		t.Errorf("FormatNumber = %q", got)
	}
	if got := FormatNumber(-1000); got != "-1,000" {
		t.Errorf("FormatNumber = %q", got)
	}
}

func TestFormatFrequency(t *testing.T) {
	cases := []struct {
		months float64
		want   string
	}{
		{0.25, "weekly"},
		{0.5, "every 2 weeks"},
		{1, "monthly"},
		{3, "quarterly"},
		{12, "yearly"},
		{18, "every 18 months"},
	}
	for _, tc := range cases {
		if got := FormatFrequency(tc.months); got != tc.want {
			t.Errorf("FormatFrequency(%v) = %q, want %q", tc.months, got, tc.want)
		}
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	if got := FormatRelativeTime(time.Time{}, now); got != "never" {
		t.Errorf("zero time = %q, want never", got)
	}
	if got := FormatRelativeTime(now.Add(-30*time.Second), now); got != "just now" {
		t.Errorf("30s = %q", got)
	}
	if got := FormatRelativeTime(now.Add(-5*time.Minute), now); got != "5m ago" {
		t.Errorf("5m = %q", got)
	}
	if got := FormatRelativeTime(now.Add(-49*time.Hour), now); got != "2d ago" {
		t.Errorf("49h = %q", got)
	}
}

func TestFormatMonth(t *testing.T) {
	if got := FormatMonth("2026-03"); got != "Mar 2026" {
		t.Errorf("FormatMonth = %q", got)
	}
	if got := FormatMonth("garbage"); got != "garbage" {
		t.Errorf("FormatMonth passthrough = %q", got)
	}
}
