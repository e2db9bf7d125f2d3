package jira

import (
	"testing"
	"time"
)

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func TestConvertDateToJQL(t *testing.T) {
	cases := []struct {
		date string
		want string
	}{
		{"2024-06-15", "startOfDay()"},
		{"2024-06-14", `"-1d"`},
		{"2024-05-16", `"-30d"`},
		{"2024-06-16", `"1d"`},
		{"garbage", `"garbage"`}, // passed through quoted so Jira reports the error
		{"", ""},
	}
	for _, c := range cases {
		if got := ConvertDateToJQL(c.date, now); got != c.want {
			t.Errorf("ConvertDateToJQL(%q) = %s, want %s", c.date, got, c.want)
		}
	}
}

func TestBuildJQL_ResolvedWindow(t *testing.T) {
	got := BuildJQL(Query{
		Project:  "OCPBUGS",
		Assignee: "wlin",
		Start:    "2024-05-16",
		End:      "2024-06-14",
		Status:   "Closed", // must be ignored when a window is present
	}, now)

	want := `project = "OCPBUGS" AND assignee = "wlin" AND resolved >= "-30d" AND resolved <= "-1d"`
	if got != want {
		t.Errorf("BuildJQL = %s\nwant      %s", got, want)
	}
}

func TestBuildJQL_StatusFallback(t *testing.T) {
	got := BuildJQL(Query{Project: "OCPBUGS", Status: "Closed"}, now)
	want := `project = "OCPBUGS" AND status = "Closed"`
	if got != want {
		t.Errorf("BuildJQL = %s, want %s", got, want)
	}
}
