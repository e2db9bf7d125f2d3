package timeutil

import (
	"errors"
	"testing"
	"time"
)

func TestParseInstant_Formats(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Time
	}{
		// Jira millisecond format with numeric zone
		{"2024-03-15T10:30:00.000+0100", time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)},
		// Jira without milliseconds
		{"2024-03-15T10:30:00+0000", time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)},
		// GitHub RFC3339
		{"2024-03-15T10:30:00Z", time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)},
		// Bare date
		{"2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, c := range cases {
		got, err := ParseInstant(c.raw)
		if err != nil {
			t.Errorf("ParseInstant(%q) returned error: %v", c.raw, err)
			continue
		}
		if !got.Equal(c.want) {
			t.Errorf("ParseInstant(%q) = %v, want %v", c.raw, got, c.want)
		}
		if got.Location() != time.UTC {
			t.Errorf("ParseInstant(%q) not normalized to UTC: %v", c.raw, got.Location())
		}
	}
}

func TestParseInstant_Invalid(t *testing.T) {
	for _, raw := range []string{"", "not-a-date", "15/03/2024"} {
		_, err := ParseInstant(raw)
		if err == nil {
			t.Errorf("ParseInstant(%q) expected error, got nil", raw)
			continue
		}
		var invalid *InvalidTimestampError
		if !errors.As(err, &invalid) {
			t.Errorf("ParseInstant(%q) error type = %T, want *InvalidTimestampError", raw, err)
		} else if invalid.Raw != raw {
			t.Errorf("InvalidTimestampError.Raw = %q, want %q", invalid.Raw, raw)
		}
	}
}

func TestDurationDays_Signed(t *testing.T) {
	a := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := a.Add(36 * time.Hour)

	if got := DurationDays(a, b); got != 1.5 {
		t.Errorf("DurationDays forward = %v, want 1.5", got)
	}
	if got := DurationDays(b, a); got != -1.5 {
		t.Errorf("DurationDays backward = %v, want -1.5", got)
	}
	if got := DurationHours(a, b); got != 36.0 {
		t.Errorf("DurationHours = %v, want 36", got)
	}
}
