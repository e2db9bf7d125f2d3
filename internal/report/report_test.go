package report

import (
	"strings"
	"testing"
	"time"

	"ai-impact/internal/compare"
	"ai-impact/internal/config"
	"ai-impact/internal/metrics"
	"ai-impact/internal/workitem"
)

func TestNormalizeUsername(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"wlin@redhat.com", "wlin"},
		{"rh-ee-wlin", "wlin"},
		{"wlin-1", "wlin"},
		{"rh-ee-wlin-2@redhat.com", "wlin"},
		{"plainname", "plainname"},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeUsername(c.in); got != c.want {
			t.Errorf("NormalizeUsername(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFilenames(t *testing.T) {
	ts := time.Date(2024, 3, 15, 14, 30, 5, 0, time.UTC)

	if got := PhaseFilename("jira", "", ts); got != "jira_report_general_20240315_143005.txt" {
		t.Errorf("PhaseFilename = %q", got)
	}
	if got := PhaseFilename("pr", "wlin@redhat.com", ts); got != "pr_report_wlin_20240315_143005.txt" {
		t.Errorf("PhaseFilename with assignee = %q", got)
	}
	if got := ComparisonFilename("jira", "", ts); got != "jira_comparison_general_20240315_143005.tsv" {
		t.Errorf("ComparisonFilename = %q", got)
	}
}

func fixtureMetrics(t *testing.T) metrics.PhaseMetrics {
	t.Helper()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	mk := func(id string, closureDays float64) workitem.WorkItem {
		resolved := base.Add(time.Duration(closureDays * 24 * float64(time.Hour)))
		return workitem.WorkItem{
			ID: id, Type: "Story", Created: base, Resolved: &resolved,
			Transitions: []workitem.StateTransition{
				{To: "New", At: base},
				{From: "New", To: "Closed", At: resolved},
			},
			AITools: []string{"Claude"},
		}
	}
	return metrics.Aggregate([]workitem.WorkItem{mk("S-1", 2), mk("S-2", 4)}, base.AddDate(0, 0, 30))
}

func TestRenderPhase_Sections(t *testing.T) {
	m := fixtureMetrics(t)
	out := RenderPhase(PhaseOptions{
		Title:     "JIRA Data Analysis Report",
		Project:   "OCPBUGS",
		Assignee:  "wlin",
		Query:     `project = "OCPBUGS"`,
		Generated: time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC),
	}, m)

	for _, want := range []string{
		"JIRA Data Analysis Report - wlin",
		"--- Data Time Range ---",
		"--- Issue Type Statistics ---",
		"Total: 2 issues",
		"--- Task Closure Time Statistics ---",
		"Average Closure Time: 3.00 days (72.00 hours)",
		"Shortest Closure Time: 2.00 days",
		"Longest Closure Time: 4.00 days",
		"--- State Duration Analysis ---",
		"--- Detailed State Analysis ---",
		"--- AI Assistance ---",
		"AI-assisted items: 2 of 2 (100.0%)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestRenderPhase_EmptyCohort(t *testing.T) {
	out := RenderPhase(PhaseOptions{
		Title:     "JIRA Data Analysis Report",
		Generated: time.Now(),
	}, metrics.Aggregate(nil, time.Now()))

	if !strings.Contains(out, "No resolved items in this period.") {
		t.Error("empty cohort should note the missing time range")
	}
	if !strings.Contains(out, "No valid closing time data found.") {
		t.Error("empty cohort should note the missing closure data")
	}
}

func TestRenderComparison_AbsentIsNA(t *testing.T) {
	phases := []config.Phase{
		{Name: "Before AI", Start: "2024-01-01", End: "2024-06-30"},
		{Name: "After AI", Start: "2024-07-01", End: "2024-12-31"},
	}
	table := compare.Table{
		Phases: []string{"Before AI", "After AI"},
		Rows: []compare.Row{
			{
				Key: "Waiting State Avg Time", Unit: "d", Polarity: compare.LowerIsBetter,
				Cells:  []compare.Cell{{Value: 2.5, Present: true}, {Present: false}},
				Trends: []compare.Trend{compare.TrendGone},
			},
		},
	}

	out := RenderComparison(phases, table, "", time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))

	if !strings.Contains(out, "Phase 1: Before AI (2024-01-01 to 2024-06-30)") {
		t.Error("header should list configured phases with their windows")
	}
	if !strings.Contains(out, "Waiting State Avg Time\t2.50d\tN/A\tno longer occurs") {
		t.Errorf("comparison row not rendered as expected:\n%s", out)
	}
	if !strings.Contains(out, "Note: N/A values indicate") {
		t.Error("absent-value note missing")
	}
	if !strings.Contains(out, "Key Changes:") {
		t.Error("key changes section missing")
	}
}

func TestFmtCell(t *testing.T) {
	cases := []struct {
		cell compare.Cell
		unit string
		want string
	}{
		{compare.Cell{Present: false}, "d", "N/A"},
		{compare.Cell{Value: 2.5, Present: true}, "d", "2.50d"},
		{compare.Cell{Value: 0.75, Present: true}, "/d", "0.75/d"},
		{compare.Cell{Value: 1.2, Present: true}, "x", "1.20x"},
		{compare.Cell{Value: 33.333, Present: true}, "%", "33.33%"},
		{compare.Cell{Value: 42, Present: true}, "", "42"},
	}
	for _, c := range cases {
		if got := fmtCell(c.cell, c.unit); got != c.want {
			t.Errorf("fmtCell(%+v, %q) = %q, want %q", c.cell, c.unit, got, c.want)
		}
	}
}

func TestFmtDuration(t *testing.T) {
	if got := fmtDuration(2.5); got != "2.50 days" {
		t.Errorf("fmtDuration(2.5) = %q", got)
	}
	if got := fmtDuration(0.5); got != "12.00 hours" {
		t.Errorf("fmtDuration(0.5) = %q", got)
	}
}
