package jira

import (
	"fmt"
	"strings"
	"time"
)

// ConvertDateToJQL converts a YYYY-MM-DD date into the relative-day JQL
// expression the search endpoint expects ("-300d" for 300 days ago).
// Same-day becomes startOfDay(); a date that does not parse is passed
// through quoted so Jira reports the error instead of us guessing.
func ConvertDateToJQL(dateStr string, now time.Time) string {
	if dateStr == "" {
		return ""
	}

	inputDate, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return fmt.Sprintf("%q", dateStr)
	}

	daysDiff := int(now.Sub(inputDate).Hours() / 24)
	switch {
	case daysDiff == 0:
		return "startOfDay()"
	case daysDiff > 0:
		return fmt.Sprintf("\"-%dd\"", daysDiff)
	default:
		return fmt.Sprintf("\"%dd\"", -daysDiff)
	}
}

// Query holds the parameters a phase fetch translates into JQL.
type Query struct {
	Project  string
	Assignee string
	Start    string // YYYY-MM-DD, optional
	End      string // YYYY-MM-DD, optional
	Status   string // used only when no resolved-date window is given
}

// BuildJQL assembles the search query. When a resolved-date window is
// present the status filter is omitted: issues with resolution dates are
// already resolved.
func BuildJQL(q Query, now time.Time) string {
	parts := []string{fmt.Sprintf("project = %q", q.Project)}

	if q.Assignee != "" {
		parts = append(parts, fmt.Sprintf("assignee = %q", q.Assignee))
	}

	if q.Start != "" || q.End != "" {
		if q.Start != "" {
			parts = append(parts, "resolved >= "+ConvertDateToJQL(q.Start, now))
		}
		if q.End != "" {
			parts = append(parts, "resolved <= "+ConvertDateToJQL(q.End, now))
		}
	} else if q.Status != "" {
		parts = append(parts, fmt.Sprintf("status = %q", q.Status))
	}

	return strings.Join(parts, " AND ")
}
