// Package report renders phase reports and comparison tables in the plain
// text / TSV formats the spreadsheet workflow expects. Rendering is the
// output boundary: it reads metric structures and writes files, nothing
// flows back into the core.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"

	"ai-impact/internal/compare"
	"ai-impact/internal/config"
	"ai-impact/internal/metrics"
)

const separator = "===================================================================================================="

var trailingDigits = regexp.MustCompile(`-\d+$`)

// NormalizeUsername strips email domains, the rh-ee- employee prefix and
// trailing numeric suffixes so filenames and sheet names stay consistent
// for the same person (wlin@redhat.com, rh-ee-wlin and wlin-1 collapse).
func NormalizeUsername(username string) string {
	if username == "" {
		return username
	}
	username = strings.SplitN(username, "@", 2)[0]
	username = strings.TrimPrefix(username, "rh-ee-")
	return trailingDigits.ReplaceAllString(username, "")
}

// Timestamp formats the file naming timestamp.
func Timestamp(t time.Time) string {
	return t.Format("20060102_150405")
}

// PhaseFilename builds the single-phase report name, e.g.
// jira_report_general_20240101_120000.txt.
func PhaseFilename(source, assignee string, t time.Time) string {
	who := "general"
	if assignee != "" {
		who = NormalizeUsername(assignee)
	}
	return fmt.Sprintf("%s_report_%s_%s.txt", source, who, Timestamp(t))
}

// ComparisonFilename builds the comparison TSV name.
func ComparisonFilename(source, assignee string, t time.Time) string {
	who := "general"
	if assignee != "" {
		who = NormalizeUsername(assignee)
	}
	return fmt.Sprintf("%s_comparison_%s_%s.tsv", source, who, Timestamp(t))
}

// PhaseOptions carries the context lines of a single-phase report header.
type PhaseOptions struct {
	Title     string // e.g. "JIRA Data Analysis Report"
	Project   string
	Assignee  string
	Query     string // the JQL or PR window used upstream
	Generated time.Time
}

// RenderPhase renders the single-phase analysis report.
func RenderPhase(opts PhaseOptions, m metrics.PhaseMetrics) string {
	var lines []string

	title := opts.Title
	if opts.Assignee != "" {
		title += " - " + opts.Assignee
	}
	lines = append(lines, separator, title, separator)
	lines = append(lines, "")
	lines = append(lines, "Generated: "+opts.Generated.Format("2006-01-02 15:04:05"))
	if opts.Project != "" {
		lines = append(lines, "Project: "+opts.Project)
	}
	if opts.Assignee != "" {
		lines = append(lines, "Assignee: "+opts.Assignee)
	}
	if opts.Query != "" {
		lines = append(lines, "Query: "+opts.Query)
	}

	lines = append(lines, "", "--- Data Time Range ---")
	if days, ok := m.DerivedRangeDays(); ok {
		lines = append(lines, "Earliest Resolved: "+m.DerivedStart.Format("2006-01-02 15:04:05"))
		lines = append(lines, "Latest Resolved: "+m.DerivedEnd.Format("2006-01-02 15:04:05"))
		lines = append(lines, fmt.Sprintf("Data Span: %d days", int(days)))
	} else {
		lines = append(lines, "No resolved items in this period.")
	}

	lines = append(lines, "", "--- Issue Type Statistics ---")
	lines = append(lines, fmt.Sprintf("Total: %d issues", m.Count))
	for _, typ := range typesByCount(m) {
		lines = append(lines, fmt.Sprintf("  %-20s %5d (%5.1f%%)", typ, m.TypeCounts[typ], m.TypePercent[typ]))
	}

	if avg, ok := m.AvgClosure(); ok {
		minDays, _ := m.MinClosure()
		maxDays, _ := m.MaxClosure()
		lines = append(lines, "", "--- Task Closure Time Statistics ---")
		lines = append(lines, fmt.Sprintf("Successfully analyzed issues: %d", m.ResolvedCount))
		lines = append(lines, fmt.Sprintf("Average Closure Time: %.2f days (%.2f hours)", avg, avg*24))
		lines = append(lines, fmt.Sprintf("Shortest Closure Time: %.2f days", minDays))
		lines = append(lines, fmt.Sprintf("Longest Closure Time: %.2f days", maxDays))
	} else {
		lines = append(lines, "", "No valid closing time data found.")
	}

	lines = append(lines, "", "--- State Duration Analysis ---")
	if len(m.States) > 0 {
		lines = append(lines, fmt.Sprintf("Analyzed %d issues state transitions", m.Count))
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("%-20s %-12s %-15s %-20s %-20s", "State", "Occurrences", "Issues Affected", "Avg Duration", "Total Duration"))
		lines = append(lines, separator)
		for _, state := range statesByAvg(m) {
			avg := m.StateAvgDays[state]
			total := avg * float64(m.StateItems[state])
			lines = append(lines, fmt.Sprintf("%-20s %-12d %-15d %-20s %-20s",
				state, m.StateEntries[state], m.StateItems[state], fmtDuration(avg), fmtDuration(total)))
		}

		lines = append(lines, "", "--- Detailed State Analysis ---")
		for _, state := range statesByAvg(m) {
			rate := m.ReentryRate[state]
			lines = append(lines, "", state+":")
			lines = append(lines, fmt.Sprintf("  - %d issues experienced this state", m.StateItems[state]))
			lines = append(lines, fmt.Sprintf("  - Average times per issue entering this state %.2f times", rate))
			if rate > 1.5 {
				lines = append(lines, "  Warning: This state was entered multiple times, indicating possible back-and-forth transitions")
			}
		}
	} else {
		lines = append(lines, "Unable to retrieve state transition data")
	}

	if m.AIAssistedCount > 0 {
		lines = append(lines, "", "--- AI Assistance ---")
		lines = append(lines, fmt.Sprintf("AI-assisted items: %d of %d (%.1f%%)", m.AIAssistedCount, m.Count, m.AIAdoptionPercent))
		var tools []string
		for tool := range m.AIToolCounts {
			tools = append(tools, tool)
		}
		sort.Strings(tools)
		for _, tool := range tools {
			lines = append(lines, fmt.Sprintf("  %-10s %d items", tool, m.AIToolCounts[tool]))
		}
	}

	if len(m.Diagnostics) > 0 {
		lines = append(lines, "", "--- Data Quality ---")
		for _, d := range m.Diagnostics {
			lines = append(lines, fmt.Sprintf("  [%s] %s: %s", d.Kind, d.ItemID, d.Detail))
		}
	}

	return strings.Join(lines, "\n")
}

// RenderComparison renders the cross-phase TSV. Configured phases are the
// source of truth for the header block; the metric rows come from the
// comparator, with absent values rendered as the literal N/A marker.
func RenderComparison(phases []config.Phase, table compare.Table, assignee string, generated time.Time) string {
	var out []string

	if assignee != "" {
		out = append(out, "AI Impact Analysis Report - "+assignee)
	} else {
		out = append(out, "AI Impact Analysis Report - Team Overall")
	}
	out = append(out, "Report Generated: "+generated.Format("January 02, 2006"))
	out = append(out, "")
	out = append(out, "This report analyzes development data across distinct periods to evaluate")
	out = append(out, "the impact of AI tools on team efficiency:")
	out = append(out, "")
	for i, p := range phases {
		out = append(out, fmt.Sprintf("Phase %d: %s (%s to %s)", i+1, p.Name, p.Start, p.End))
	}
	out = append(out, "")

	header := append([]string{"Metric"}, table.Phases...)
	out = append(out, strings.Join(append(header, "Trend"), "\t"))

	for _, row := range table.Rows {
		cells := []string{row.Key}
		for _, cell := range row.Cells {
			cells = append(cells, fmtCell(cell, row.Unit))
		}
		cells = append(cells, fmtTrends(row.Trends))
		out = append(out, strings.Join(cells, "\t"))
	}

	out = append(out, "")
	out = append(out, "Note: N/A values indicate no issues entered that workflow state during the period.")
	out = append(out, "This can be positive (e.g., no blocked issues) or indicate the state isn't used in your workflow.")
	out = append(out, "")

	out = append(out, "Key Changes:")
	increases, decreases := compare.TopChanges(table, 5)

	out = append(out, "", "Top 5 Increases in Metrics:")
	if len(increases) > 0 {
		for _, c := range increases {
			out = append(out, fmtChange(c))
		}
	} else {
		out = append(out, "- No increases detected")
	}

	out = append(out, "", "Top 5 Decreases in Metrics:")
	if len(decreases) > 0 {
		for _, c := range decreases {
			out = append(out, fmtChange(c))
		}
	} else {
		out = append(out, "- No decreases detected")
	}

	return strings.Join(out, "\n")
}

// Write saves content under dir and returns the full path.
func Write(dir, name, content string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	log.Info().Str("path", path).Msg("Report written")
	return path, nil
}

// Open opens a written report in the default browser or editor.
func Open(path string) error {
	return browser.OpenFile(path)
}

func fmtCell(cell compare.Cell, unit string) string {
	if !cell.Present {
		return "N/A"
	}
	switch unit {
	case "d":
		return fmt.Sprintf("%.2fd", cell.Value)
	case "/d":
		return fmt.Sprintf("%.2f/d", cell.Value)
	case "x":
		return fmt.Sprintf("%.2fx", cell.Value)
	case "%":
		return fmt.Sprintf("%.2f%%", cell.Value)
	default:
		return fmt.Sprintf("%.0f", cell.Value)
	}
}

func fmtTrends(trends []compare.Trend) string {
	var parts []string
	for _, t := range trends {
		if t == compare.TrendNone {
			parts = append(parts, "-")
		} else {
			parts = append(parts, string(t))
		}
	}
	return strings.Join(parts, ", ")
}

func fmtChange(c compare.Change) string {
	if c.Absolute {
		return fmt.Sprintf("- %s: %.2f%s -> %.2f%s (+%.2f%s absolute change)",
			c.Name, c.Before, c.Unit, c.After, c.Unit, c.Pct, c.Unit)
	}
	return fmt.Sprintf("- %s: %.2f%s -> %.2f%s (%+.1f%% change)",
		c.Name, c.Before, c.Unit, c.After, c.Unit, c.Pct)
}

func fmtDuration(days float64) string {
	if days >= 1 || days <= -1 {
		return fmt.Sprintf("%.2f days", days)
	}
	return fmt.Sprintf("%.2f hours", days*24)
}

func typesByCount(m metrics.PhaseMetrics) []string {
	var types []string
	for typ := range m.TypeCounts {
		types = append(types, typ)
	}
	sort.SliceStable(types, func(i, j int) bool {
		if m.TypeCounts[types[i]] != m.TypeCounts[types[j]] {
			return m.TypeCounts[types[i]] > m.TypeCounts[types[j]]
		}
		return types[i] < types[j]
	})
	return types
}

func statesByAvg(m metrics.PhaseMetrics) []string {
	states := make([]string, len(m.States))
	copy(states, m.States)
	sort.SliceStable(states, func(i, j int) bool {
		if m.StateAvgDays[states[i]] != m.StateAvgDays[states[j]] {
			return m.StateAvgDays[states[i]] > m.StateAvgDays[states[j]]
		}
		return states[i] < states[j]
	})
	return states
}
