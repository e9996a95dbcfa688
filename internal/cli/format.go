// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/mmynk/splitledger/internal/money"
)

// DateLayout is the day format accepted and printed by the CLI.
const DateLayout = "2006-01-02"

// FormatNet renders a net balance with an explicit sign so creditors and
// debtors are easy to tell apart: "+45.00", "-15.00", "0.00".
func FormatNet(c money.Currency, m money.Money) string {
	s := m.StringFixed(c.Places)
	if m.IsPositive() {
		return "+" + s
	}
	return s
}

// FormatDate renders Unix seconds as a UTC day.
func FormatDate(unix int64) string {
	if unix == 0 {
		return "-"
	}
	return time.Unix(unix, 0).UTC().Format(DateLayout)
}

// ParseDate parses a day in DateLayout as UTC midnight Unix seconds.
// The empty string is 0, meaning unbounded.
func ParseDate(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("invalid date '%s': want YYYY-MM-DD", s)
	}
	return t.Unix(), nil
}

// FormatRange describes a half-open date range for titles.
func FormatRange(from, to int64) string {
	switch {
	case from == 0 && to == 0:
		return "all time"
	case to == 0:
		return "since " + FormatDate(from)
	case from == 0:
		return "before " + FormatDate(to)
	default:
		return FormatDate(from) + " to " + FormatDate(to)
	}
}

// Truncate shortens s to at most n runes, marking the cut with "…".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n || n < 1 {
		return s
	}
	return string(r[:n-1]) + "…"
}
