// Package history reconstructs per-state residency intervals from an item's
// raw transition sequence. It is a pure, single-pass computation: the input
// order is preserved, re-entries produce one interval per visit, and data
// quality violations are surfaced as diagnostics instead of being repaired.
package history

import (
	"fmt"
	"time"

	"ai-impact/internal/timeutil"
	"ai-impact/internal/workitem"
)

// Interval is one contiguous stay in a workflow state. A zero End marks the
// open-ended final interval of an item that has not since transitioned out.
type Interval struct {
	State string
	Start time.Time
	End   time.Time
}

// Open reports whether the interval has no closing instant.
func (iv Interval) Open() bool {
	return iv.End.IsZero()
}

// Days returns the interval length in fractional days. Open intervals have
// no defined length and return 0; callers must check Open first.
func (iv Interval) Days() float64 {
	if iv.Open() {
		return 0
	}
	return timeutil.DurationDays(iv.Start, iv.End)
}

// Result is the reconstructed state history of a single work item.
type Result struct {
	// Intervals maps each state to its visits in chronological order.
	// A state visited three times yields three intervals.
	Intervals map[string][]Interval
	// Entries counts how many times each state was entered. Duplicate
	// same-state transitions do not count as re-entries.
	Entries map[string]int
	// States lists the visited states in first-entry order, so callers can
	// iterate deterministically without depending on map order.
	States []string
	// Diagnostics records out-of-order transitions and negative-duration
	// intervals observed during the walk.
	Diagnostics []workitem.Diagnostic
}

// TotalDays sums the closed interval durations for one state.
func (r Result) TotalDays(state string) float64 {
	var total float64
	for _, iv := range r.Intervals[state] {
		if !iv.Open() {
			total += iv.Days()
		}
	}
	return total
}

// Reconstruct walks the item's transition sequence once and produces the
// per-state interval map.
//
// The walk seeds from the first transition's to-state at its timestamp.
// Fetchers synthesize a leading transition into the item's initial state at
// creation time, so the pre-workflow period is accounted for. If the
// sequence is empty, initialState (the item's current state, by convention)
// is opened at the creation instant instead; an empty initialState yields an
// empty result.
//
// observationEnd closes the final interval; pass the resolution instant for
// resolved items or "now" for open ones. A zero observationEnd leaves the
// final interval open-ended.
//
// Transitions with decreasing timestamps are processed as given. They may
// produce negative-duration intervals, which are recorded as diagnostics
// rather than clamped: clamping would hide upstream data corruption.
func Reconstruct(item workitem.WorkItem, initialState string, observationEnd time.Time) Result {
	res := Result{
		Intervals: make(map[string][]Interval),
		Entries:   make(map[string]int),
	}

	enter := func(state string) {
		if res.Entries[state] == 0 {
			res.States = append(res.States, state)
		}
		res.Entries[state]++
	}

	closeInterval := func(state string, start, end time.Time) {
		if end.Before(start) {
			res.Diagnostics = append(res.Diagnostics, workitem.Diagnostic{
				ItemID: item.ID,
				Kind:   workitem.DiagNegativeInterval,
				Detail: fmt.Sprintf("state %q closed %.2f days before it was entered", state, timeutil.DurationDays(end, start)),
			})
		}
		res.Intervals[state] = append(res.Intervals[state], Interval{State: state, Start: start, End: end})
	}

	var current string
	var currentStart time.Time

	if len(item.Transitions) == 0 {
		if initialState == "" {
			return res
		}
		current = initialState
		currentStart = item.Created
		enter(current)
	} else {
		first := item.Transitions[0]
		current = first.To
		currentStart = first.At
		enter(current)

		prevAt := first.At
		for _, t := range item.Transitions[1:] {
			if t.At.Before(prevAt) {
				res.Diagnostics = append(res.Diagnostics, workitem.Diagnostic{
					ItemID: item.ID,
					Kind:   workitem.DiagOutOfOrder,
					Detail: fmt.Sprintf("transition to %q at %s precedes previous transition at %s", t.To, t.At.Format(time.RFC3339), prevAt.Format(time.RFC3339)),
				})
			}
			prevAt = t.At

			// Duplicate transition into the current state. Some upstream
			// systems emit these; treat as idempotent.
			if t.To == current {
				continue
			}

			closeInterval(current, currentStart, t.At)
			current = t.To
			currentStart = t.At
			enter(current)
		}
	}

	if observationEnd.IsZero() {
		res.Intervals[current] = append(res.Intervals[current], Interval{State: current, Start: currentStart})
	} else {
		closeInterval(current, currentStart, observationEnd)
	}

	return res
}
