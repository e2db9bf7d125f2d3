// Package timeutil normalizes the heterogeneous timestamp formats produced
// by the Jira and GitHub APIs (and user-supplied dates) into UTC instants.
package timeutil

import (
	"fmt"
	"time"
)

// layouts lists the accepted source formats in match priority order.
// Jira emits millisecond precision with a numeric zone; GitHub emits RFC3339.
var layouts = []string{
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
	time.RFC3339,
	"2006-01-02",
}

// InvalidTimestampError reports a raw value that none of the accepted
// formats could parse. The offending input is preserved for diagnostics.
type InvalidTimestampError struct {
	Raw string
}

func (e *InvalidTimestampError) Error() string {
	return fmt.Sprintf("invalid timestamp %q", e.Raw)
}

// ParseInstant parses a raw timestamp into a UTC instant.
// All instants are normalized to UTC at parse time so that durations are
// comparable regardless of the source zone.
func ParseInstant(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, &InvalidTimestampError{Raw: raw}
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &InvalidTimestampError{Raw: raw}
}

// DurationDays returns b minus a in fractional days. The result is signed;
// the caller decides whether a negative duration is an error.
func DurationDays(a, b time.Time) float64 {
	return b.Sub(a).Seconds() / 86400.0
}

// DurationHours returns b minus a in fractional hours, signed.
func DurationHours(a, b time.Time) float64 {
	return b.Sub(a).Seconds() / 3600.0
}
