package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseTimeExpr parses relative ("2h", "3d", "2w", "1mo", "1y") and absolute
// (RFC3339, "2006-01-02T15:04", "2006-01-02") time expressions.
func parseTimeExpr(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time expression")
	}

	// Absolutes first so dates are never read as a "d" suffix.
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02T15:04", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}

	// Custom shorthands: y (years), mo (months), w (weeks), d (days)
	suffixes := []struct {
		suffix string
		apply  func(int) time.Time
	}{
		{"mo", func(n int) time.Time { return now.AddDate(0, -n, 0) }},
		{"y", func(n int) time.Time { return now.AddDate(-n, 0, 0) }},
		{"w", func(n int) time.Time { return now.AddDate(0, 0, -7*n) }},
		{"d", func(n int) time.Time { return now.AddDate(0, 0, -n) }},
	}
	for _, sfx := range suffixes {
		if strings.HasSuffix(s, sfx.suffix) {
			numStr := strings.TrimSuffix(s, sfx.suffix)
			if n, err := strconv.Atoi(numStr); err == nil && n >= 0 {
				return sfx.apply(n), nil
			}
			return time.Time{}, fmt.Errorf("invalid %s duration: %q", sfx.suffix, s)
		}
	}

	// Standard Go durations (keeps 'm' = minutes)
	if d, err := time.ParseDuration(s); err == nil {
		return now.Add(-d), nil
	}

	return time.Time{}, fmt.Errorf("invalid time expression: %q", s)
}

// ParseSince resolves a --since expression relative to now. Empty input yields
// the zero time, which disables the filter.
func ParseSince(expr string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(expr) == "" {
		return time.Time{}, nil
	}
	t, err := parseTimeExpr(expr, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --since: %w", err)
	}
	if t.After(now) {
		return time.Time{}, fmt.Errorf("invalid --since: %q is in the future", expr)
	}
	return t.UTC(), nil
}
