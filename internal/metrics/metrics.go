// Package metrics aggregates a cohort of work items into phase-level
// statistics. The aggregation is a pure fold over the input slice: it reads
// its arguments, allocates a new result, and keeps no shared state, so
// concurrent calls over different cohorts are safe.
package metrics

import (
	"errors"
	"sort"
	"time"

	"ai-impact/internal/history"
	"ai-impact/internal/timeutil"
	"ai-impact/internal/workitem"
)

// ErrNoCohortData is the systemic failure surfaced when not a single record
// of a batch could be analyzed. Per-record failures are diagnostics; this is
// the case where no meaningful metrics can exist at all.
var ErrNoCohortData = errors.New("no analyzable items in cohort")

// TypeUnknown buckets items with no resolvable type tag. They stay in the
// distribution denominator so percentages always cover the whole cohort.
const TypeUnknown = "Unknown"

// PhaseMetrics is the aggregate over one cohort (phase, optionally
// restricted to a single actor).
//
// Per-state maps contain only states that at least one item entered: a
// missing key means "absent", which is semantically distinct from zero and
// must not be conflated downstream.
type PhaseMetrics struct {
	Count         int `json:"count"`
	ResolvedCount int `json:"resolvedCount"`

	// DerivedStart/DerivedEnd span the resolution instants actually observed
	// in the cohort. This is NOT the configured query window.
	DerivedStart time.Time `json:"derivedStart,omitzero"`
	DerivedEnd   time.Time `json:"derivedEnd,omitzero"`

	avgClosureDays float64
	maxClosureDays float64
	minClosureDays float64

	// StateAvgDays is the mean dwell per state, averaged over the items that
	// ever entered the state, not over the whole cohort.
	StateAvgDays map[string]float64 `json:"stateAvgDays,omitempty"`
	// StateEntries is the total entry count per state across the cohort.
	StateEntries map[string]int `json:"stateEntries,omitempty"`
	// StateItems counts the items that entered each state at least once.
	StateItems map[string]int `json:"stateItems,omitempty"`
	// ReentryRate is StateEntries / StateItems; exactly 1.0 means no item
	// re-entered the state.
	ReentryRate map[string]float64 `json:"reentryRate,omitempty"`

	// States lists the keys of the per-state maps in sorted order for
	// deterministic iteration.
	States []string `json:"states,omitempty"`

	// TypePercent sums to 100 over the full cohort, unknown types included.
	TypePercent map[string]float64 `json:"typePercent,omitempty"`
	TypeCounts  map[string]int     `json:"typeCounts,omitempty"`

	AIAssistedCount   int            `json:"aiAssistedCount"`
	AIAdoptionPercent float64        `json:"aiAdoptionPercent"`
	AIToolCounts      map[string]int `json:"aiToolCounts,omitempty"`

	// Diagnostics collects the data-quality warnings recorded while
	// reconstructing the cohort's state histories.
	Diagnostics []workitem.Diagnostic `json:"diagnostics,omitempty"`
}

// ClosureDays returns an item's creation-to-resolution duration in days.
// Unresolved items have no closure time; ok is false.
func ClosureDays(item workitem.WorkItem) (float64, bool) {
	if item.Resolved == nil {
		return 0, false
	}
	return timeutil.DurationDays(item.Created, *item.Resolved), true
}

// AvgClosure returns the mean closure time in days over resolved items.
func (m PhaseMetrics) AvgClosure() (float64, bool) {
	return m.avgClosureDays, m.ResolvedCount > 0
}

// MaxClosure returns the longest closure time in days.
func (m PhaseMetrics) MaxClosure() (float64, bool) {
	return m.maxClosureDays, m.ResolvedCount > 0
}

// MinClosure returns the shortest closure time in days.
func (m PhaseMetrics) MinClosure() (float64, bool) {
	return m.minClosureDays, m.ResolvedCount > 0
}

// DerivedRangeDays returns the length of the derived date range in
// fractional days, or false when fewer than one resolved item exists.
func (m PhaseMetrics) DerivedRangeDays() (float64, bool) {
	if m.ResolvedCount == 0 {
		return 0, false
	}
	return timeutil.DurationDays(m.DerivedStart, m.DerivedEnd), true
}

// Throughput returns cohort items per day over the derived range. A
// cohort whose derived range has zero length has no defined throughput.
func (m PhaseMetrics) Throughput() (float64, bool) {
	days, ok := m.DerivedRangeDays()
	if !ok || days <= 0 {
		return 0, false
	}
	return float64(m.Count) / days, true
}

// AvgStateDays returns the average dwell for one state, or false if no item
// in the cohort ever entered it. Absent is not zero.
func (m PhaseMetrics) AvgStateDays(state string) (float64, bool) {
	v, ok := m.StateAvgDays[state]
	return v, ok
}

// StateReentry returns the re-entry rate for one state, or false if no item
// ever entered it.
func (m PhaseMetrics) StateReentry(state string) (float64, bool) {
	v, ok := m.ReentryRate[state]
	return v, ok
}

// Aggregate folds a cohort into PhaseMetrics.
//
// now closes the final open interval of unresolved items; it is passed in
// rather than read from the clock so that identical inputs always produce
// bit-identical results. Sums accumulate in input order for the same reason.
func Aggregate(items []workitem.WorkItem, now time.Time) PhaseMetrics {
	m := PhaseMetrics{
		Count:        len(items),
		StateAvgDays: make(map[string]float64),
		StateEntries: make(map[string]int),
		StateItems:   make(map[string]int),
		ReentryRate:  make(map[string]float64),
		TypePercent:  make(map[string]float64),
		TypeCounts:   make(map[string]int),
		AIToolCounts: make(map[string]int),
	}
	if len(items) == 0 {
		return m
	}

	stateTotalDays := make(map[string]float64)
	var closureSum float64

	for _, item := range items {
		typ := item.Type
		if typ == "" {
			typ = TypeUnknown
		}
		m.TypeCounts[typ]++

		if days, ok := ClosureDays(item); ok {
			closureSum += days
			if m.ResolvedCount == 0 || days > m.maxClosureDays {
				m.maxClosureDays = days
			}
			if m.ResolvedCount == 0 || days < m.minClosureDays {
				m.minClosureDays = days
			}
			if m.DerivedStart.IsZero() || item.Resolved.Before(m.DerivedStart) {
				m.DerivedStart = *item.Resolved
			}
			if m.DerivedEnd.IsZero() || item.Resolved.After(m.DerivedEnd) {
				m.DerivedEnd = *item.Resolved
			}
			m.ResolvedCount++
		}

		if len(item.AITools) > 0 {
			m.AIAssistedCount++
			for _, tool := range item.AITools {
				m.AIToolCounts[tool]++
			}
		}

		observationEnd := now
		if item.Resolved != nil {
			observationEnd = *item.Resolved
		}
		hist := history.Reconstruct(item, "", observationEnd)
		m.Diagnostics = append(m.Diagnostics, hist.Diagnostics...)

		for _, state := range hist.States {
			stateTotalDays[state] += hist.TotalDays(state)
			m.StateEntries[state] += hist.Entries[state]
			m.StateItems[state]++
		}
	}

	if m.ResolvedCount > 0 {
		m.avgClosureDays = closureSum / float64(m.ResolvedCount)
	}

	for state, itemCount := range m.StateItems {
		m.StateAvgDays[state] = stateTotalDays[state] / float64(itemCount)
		m.ReentryRate[state] = float64(m.StateEntries[state]) / float64(itemCount)
		m.States = append(m.States, state)
	}
	sort.Strings(m.States)

	for typ, count := range m.TypeCounts {
		m.TypePercent[typ] = float64(count) / float64(m.Count) * 100.0
	}

	m.AIAdoptionPercent = float64(m.AIAssistedCount) / float64(m.Count) * 100.0

	return m
}

// FilterByActor returns the subset of items assigned to (or authored by)
// one actor. Cohort restriction happens before aggregation; the comparator
// never re-filters.
func FilterByActor(items []workitem.WorkItem, actor string) []workitem.WorkItem {
	if actor == "" {
		return items
	}
	var filtered []workitem.WorkItem
	for _, item := range items {
		if item.Actor == actor {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
