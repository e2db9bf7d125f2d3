// Package compare aligns N phase metric sets into a side-by-side table with
// trend annotations. Phase order is caller-significant and preserved; the
// comparator never re-filters or re-sorts its input.
package compare

import (
	"math"
	"sort"

	"ai-impact/internal/metrics"
)

// Named pairs a phase name with its aggregated metrics. The metrics must
// already be computed over the intended cohort (including any actor
// restriction); the comparator only reads them.
type Named struct {
	Name string
	M    metrics.PhaseMetrics
}

// Polarity states which direction of change counts as an improvement.
type Polarity int

const (
	// Neutral metrics (counts, distributions) carry no improved/regressed
	// judgement.
	Neutral Polarity = iota
	LowerIsBetter
	HigherIsBetter
)

// Trend annotates the change from one phase to the next.
type Trend string

const (
	TrendNone      Trend = ""
	TrendImproved  Trend = "improved"
	TrendRegressed Trend = "regressed"
	TrendUnchanged Trend = "unchanged"
	// TrendGone marks a metric present in the previous phase but absent in
	// this one. It is a qualitative note, never a numeric delta.
	TrendGone Trend = "no longer occurs"
	// TrendNew marks a metric absent before but present now.
	TrendNew Trend = "newly occurs"
)

// Cell is one metric value for one phase. Present=false renders as N/A and
// must never be compared numerically.
type Cell struct {
	Value   float64
	Present bool
}

// Row is one metric across all phases, aligned by key.
type Row struct {
	Key      string
	Unit     string // "d", "/d", "x", "%", or empty for plain counts
	Polarity Polarity
	Cells    []Cell
	// Trends[i] compares phase i+1 against phase i.
	Trends []Trend
	// keyChange marks rows eligible for the top-changes summary.
	keyChange bool
}

// Table is the full comparison.
type Table struct {
	Phases []string
	Rows   []Row
}

// States the workflow is known to use, in report order. States observed in
// the data but not listed here are appended alphabetically.
var wellKnownStates = []string{"New", "To Do", "In Progress", "Review", "Release Pending", "Waiting"}

var wellKnownTypes = []string{"Story", "Task", "Bug", "Epic"}

const trendEpsilon = 1e-9

// Compare builds the comparison table for an ordered list of phases.
func Compare(phases []Named) Table {
	t := Table{}
	for _, p := range phases {
		t.Phases = append(t.Phases, p.Name)
	}

	addRow := func(key, unit string, pol Polarity, keyChange bool, cell func(metrics.PhaseMetrics) Cell) {
		row := Row{Key: key, Unit: unit, Polarity: pol, keyChange: keyChange}
		for _, p := range phases {
			row.Cells = append(row.Cells, cell(p.M))
		}
		row.Trends = computeTrends(row)
		t.Rows = append(t.Rows, row)
	}

	addRow("Analysis Period", "d", Neutral, false, func(m metrics.PhaseMetrics) Cell {
		days, ok := m.DerivedRangeDays()
		return Cell{Value: days, Present: ok}
	})
	addRow("Total Issues Completed", "", HigherIsBetter, false, func(m metrics.PhaseMetrics) Cell {
		return Cell{Value: float64(m.Count), Present: true}
	})
	addRow("Average Closure Time", "d", LowerIsBetter, true, func(m metrics.PhaseMetrics) Cell {
		v, ok := m.AvgClosure()
		return Cell{Value: v, Present: ok}
	})
	addRow("Longest Closure Time", "d", LowerIsBetter, false, func(m metrics.PhaseMetrics) Cell {
		v, ok := m.MaxClosure()
		return Cell{Value: v, Present: ok}
	})
	addRow("Daily Throughput", "/d", HigherIsBetter, true, func(m metrics.PhaseMetrics) Cell {
		v, ok := m.Throughput()
		return Cell{Value: v, Present: ok}
	})

	for _, state := range stateOrder(phases) {
		state := state
		addRow(state+" State Avg Time", "d", LowerIsBetter, true, func(m metrics.PhaseMetrics) Cell {
			v, ok := m.AvgStateDays(state)
			return Cell{Value: v, Present: ok}
		})
	}
	for _, state := range stateOrder(phases) {
		state := state
		addRow(state+" Re-entry Rate", "x", LowerIsBetter, true, func(m metrics.PhaseMetrics) Cell {
			v, ok := m.StateReentry(state)
			return Cell{Value: v, Present: ok}
		})
	}

	for _, typ := range typeOrder(phases) {
		typ := typ
		addRow(typ+" Percentage", "%", Neutral, false, func(m metrics.PhaseMetrics) Cell {
			// Type distributions always cover the whole cohort, so a type
			// missing from the map is a true zero, not an absent metric.
			return Cell{Value: m.TypePercent[typ], Present: m.Count > 0}
		})
	}

	addRow("AI Adoption", "%", HigherIsBetter, true, func(m metrics.PhaseMetrics) Cell {
		return Cell{Value: m.AIAdoptionPercent, Present: m.Count > 0}
	})

	return t
}

func computeTrends(row Row) []Trend {
	if len(row.Cells) < 2 {
		return nil
	}
	trends := make([]Trend, len(row.Cells)-1)
	for i := 1; i < len(row.Cells); i++ {
		prev, cur := row.Cells[i-1], row.Cells[i]
		switch {
		case !prev.Present && !cur.Present:
			trends[i-1] = TrendNone
		case prev.Present && !cur.Present:
			trends[i-1] = TrendGone
		case !prev.Present && cur.Present:
			trends[i-1] = TrendNew
		case math.Abs(cur.Value-prev.Value) < trendEpsilon:
			trends[i-1] = TrendUnchanged
		case row.Polarity == Neutral:
			trends[i-1] = TrendNone
		case (row.Polarity == LowerIsBetter) == (cur.Value < prev.Value):
			trends[i-1] = TrendImproved
		default:
			trends[i-1] = TrendRegressed
		}
	}
	return trends
}

// stateOrder returns the union of states across all phases: well-known
// workflow states first, then anything else alphabetically.
func stateOrder(phases []Named) []string {
	seen := make(map[string]bool)
	for _, p := range phases {
		for _, s := range p.M.States {
			seen[s] = true
		}
	}
	var order []string
	for _, s := range wellKnownStates {
		if seen[s] {
			order = append(order, s)
			delete(seen, s)
		}
	}
	var rest []string
	for s := range seen {
		rest = append(rest, s)
	}
	sort.Strings(rest)
	return append(order, rest...)
}

func typeOrder(phases []Named) []string {
	seen := make(map[string]bool)
	for _, p := range phases {
		for typ := range p.M.TypeCounts {
			seen[typ] = true
		}
	}
	var order []string
	for _, typ := range wellKnownTypes {
		if seen[typ] {
			order = append(order, typ)
			delete(seen, typ)
		}
	}
	var rest []string
	for typ := range seen {
		rest = append(rest, typ)
	}
	sort.Strings(rest)
	return append(order, rest...)
}

// Change is one entry of the top increases/decreases summary, comparing the
// first and last phase of the table.
type Change struct {
	Name   string
	Before float64
	After  float64
	// Pct is the percentage change, or the absolute delta when Absolute is
	// set (used when the baseline is zero, e.g. AI adoption starting at 0%).
	Pct      float64
	Unit     string
	Absolute bool
}

// TopChanges extracts the n largest increases and decreases between the
// first and last phase. Rows where either endpoint is absent are skipped: a
// present-to-absent transition is a qualitative trend note, not a delta.
func TopChanges(t Table, n int) (increases, decreases []Change) {
	if len(t.Phases) < 2 {
		return nil, nil
	}
	for _, row := range t.Rows {
		if !row.keyChange {
			continue
		}
		first, last := row.Cells[0], row.Cells[len(row.Cells)-1]
		if !first.Present || !last.Present {
			continue
		}
		if first.Value == 0 {
			// Percentage change from a zero baseline is undefined. Adoption
			// metrics report the absolute delta instead; everything else is
			// skipped, matching the undefined-baseline rule.
			if row.Unit == "%" && last.Value > 0 {
				increases = append(increases, Change{
					Name: row.Key, Before: first.Value, After: last.Value,
					Pct: last.Value, Unit: row.Unit, Absolute: true,
				})
			}
			continue
		}
		pct := (last.Value - first.Value) / first.Value * 100.0
		change := Change{Name: row.Key, Before: first.Value, After: last.Value, Pct: pct, Unit: row.Unit}
		if pct > 0 {
			increases = append(increases, change)
		} else if pct < 0 {
			decreases = append(decreases, change)
		}
	}

	byMagnitude := func(changes []Change) {
		sort.SliceStable(changes, func(i, j int) bool {
			return math.Abs(changes[i].Pct) > math.Abs(changes[j].Pct)
		})
	}
	byMagnitude(increases)
	byMagnitude(decreases)

	if len(increases) > n {
		increases = increases[:n]
	}
	if len(decreases) > n {
		decreases = decreases[:n]
	}
	return increases, decreases
}
