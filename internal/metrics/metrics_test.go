package metrics

import (
	"math"
	"testing"
	"time"

	"ai-impact/internal/workitem"
)

var base = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func at(days float64) time.Time {
	return base.Add(time.Duration(days * 24 * float64(time.Hour)))
}

func approx(got, want float64) bool {
	return math.Abs(got-want) < 1e-9
}

// resolvedItem builds an item that walks the given states at the given
// cumulative day offsets and resolves at the last offset.
func resolvedItem(id, typ string, states []string, offsets []float64) workitem.WorkItem {
	item := workitem.WorkItem{ID: id, Type: typ, Created: base}
	prev := ""
	for i, s := range states {
		item.Transitions = append(item.Transitions, workitem.StateTransition{From: prev, To: s, At: at(offsets[i])})
		prev = s
	}
	resolved := at(offsets[len(offsets)-1])
	item.Resolved = &resolved
	return item
}

func TestAggregate_AbsentIsNotZero(t *testing.T) {
	// Only the first item ever waits; the second never enters Waiting.
	items := []workitem.WorkItem{
		resolvedItem("A-1", "Story", []string{"New", "Waiting", "Done"}, []float64{0, 1, 3}),
		resolvedItem("A-2", "Story", []string{"New", "Done"}, []float64{0, 2}),
	}

	m := Aggregate(items, at(10))

	if avg, ok := m.AvgStateDays("Waiting"); !ok || !approx(avg, 2.0) {
		t.Errorf("Waiting avg = (%v, %v), want (2.0, true): averaged over entrants only", avg, ok)
	}
	if m.StateItems["Waiting"] != 1 {
		t.Errorf("Waiting items = %d, want 1", m.StateItems["Waiting"])
	}

	// A state nobody entered is absent, not zero.
	if _, ok := m.AvgStateDays("Blocked"); ok {
		t.Error("Blocked should be absent from the cohort")
	}
	if _, ok := m.StateReentry("Blocked"); ok {
		t.Error("Blocked re-entry should be absent from the cohort")
	}
}

func TestAggregate_ReentryRate(t *testing.T) {
	items := []workitem.WorkItem{
		resolvedItem("R-1", "Bug", []string{"New", "In Progress", "Review", "In Progress", "Done"}, []float64{0, 1, 2, 3, 4}),
		resolvedItem("R-2", "Bug", []string{"New", "In Progress", "Done"}, []float64{0, 1, 2}),
	}

	m := Aggregate(items, at(10))

	// 3 entries over 2 items.
	if rate, ok := m.StateReentry("In Progress"); !ok || !approx(rate, 1.5) {
		t.Errorf("In Progress re-entry = (%v, %v), want (1.5, true)", rate, ok)
	}
	// Exactly 1.0 means no re-entry anywhere in the cohort.
	if rate, ok := m.StateReentry("New"); !ok || !approx(rate, 1.0) {
		t.Errorf("New re-entry = (%v, %v), want (1.0, true)", rate, ok)
	}
}

func TestAggregate_ClosureAndDerivedRange(t *testing.T) {
	items := []workitem.WorkItem{
		resolvedItem("C-1", "Story", []string{"New", "Done"}, []float64{0, 2}),
		resolvedItem("C-2", "Story", []string{"New", "Done"}, []float64{0, 6}),
		{ID: "C-3", Type: "Story", Created: base}, // unresolved
	}

	m := Aggregate(items, at(10))

	if m.Count != 3 || m.ResolvedCount != 2 {
		t.Fatalf("Count/ResolvedCount = %d/%d, want 3/2", m.Count, m.ResolvedCount)
	}
	if avg, ok := m.AvgClosure(); !ok || !approx(avg, 4.0) {
		t.Errorf("AvgClosure = (%v, %v), want (4.0, true)", avg, ok)
	}
	if maxd, _ := m.MaxClosure(); !approx(maxd, 6.0) {
		t.Errorf("MaxClosure = %v, want 6.0", maxd)
	}
	if mind, _ := m.MinClosure(); !approx(mind, 2.0) {
		t.Errorf("MinClosure = %v, want 2.0", mind)
	}

	// Derived range spans the observed resolutions, not the query window.
	if !m.DerivedStart.Equal(at(2)) || !m.DerivedEnd.Equal(at(6)) {
		t.Errorf("derived range = %v..%v, want %v..%v", m.DerivedStart, m.DerivedEnd, at(2), at(6))
	}
	if tp, ok := m.Throughput(); !ok || !approx(tp, 3.0/4.0) {
		t.Errorf("Throughput = (%v, %v), want (0.75, true)", tp, ok)
	}
}

func TestAggregate_ThroughputUndefinedOnZeroRange(t *testing.T) {
	// A single resolved item collapses the derived range to zero length.
	m := Aggregate([]workitem.WorkItem{
		resolvedItem("T-1", "Task", []string{"New", "Done"}, []float64{0, 3}),
	}, at(10))

	if _, ok := m.Throughput(); ok {
		t.Error("Throughput over a zero-length range should be absent, not infinite")
	}
	if days, ok := m.DerivedRangeDays(); !ok || days != 0 {
		t.Errorf("DerivedRangeDays = (%v, %v), want (0, true)", days, ok)
	}
}

func TestAggregate_TypeDistribution(t *testing.T) {
	items := []workitem.WorkItem{
		resolvedItem("D-1", "Story", []string{"New", "Done"}, []float64{0, 1}),
		resolvedItem("D-2", "Bug", []string{"New", "Done"}, []float64{0, 1}),
		resolvedItem("D-3", "", []string{"New", "Done"}, []float64{0, 1}),
		{ID: "D-4", Type: "Story", Created: base}, // open items still count
	}

	m := Aggregate(items, at(10))

	if m.TypeCounts["Story"] != 2 || m.TypeCounts["Bug"] != 1 || m.TypeCounts[TypeUnknown] != 1 {
		t.Errorf("TypeCounts = %v, want Story:2 Bug:1 Unknown:1", m.TypeCounts)
	}

	var sum float64
	for _, pct := range m.TypePercent {
		sum += pct
	}
	if !approx(sum, 100.0) {
		t.Errorf("TypePercent sums to %v, want 100", sum)
	}
}

func TestAggregate_AIAdoption(t *testing.T) {
	items := []workitem.WorkItem{
		{ID: "AI-1", Created: base, AITools: []string{"Claude"}},
		{ID: "AI-2", Created: base, AITools: []string{"Claude", "Cursor"}},
		{ID: "AI-3", Created: base},
		{ID: "AI-4", Created: base},
	}

	m := Aggregate(items, at(1))

	if m.AIAssistedCount != 2 {
		t.Errorf("AIAssistedCount = %d, want 2", m.AIAssistedCount)
	}
	if !approx(m.AIAdoptionPercent, 50.0) {
		t.Errorf("AIAdoptionPercent = %v, want 50", m.AIAdoptionPercent)
	}
	if m.AIToolCounts["Claude"] != 2 || m.AIToolCounts["Cursor"] != 1 {
		t.Errorf("AIToolCounts = %v, want Claude:2 Cursor:1", m.AIToolCounts)
	}
}

func TestAggregate_EmptyCohort(t *testing.T) {
	m := Aggregate(nil, at(0))

	if m.Count != 0 {
		t.Errorf("Count = %d, want 0", m.Count)
	}
	if _, ok := m.AvgClosure(); ok {
		t.Error("AvgClosure over an empty cohort should be absent")
	}
	if _, ok := m.Throughput(); ok {
		t.Error("Throughput over an empty cohort should be absent")
	}
	if len(m.States) != 0 {
		t.Errorf("States = %v, want empty", m.States)
	}
}

func TestAggregate_Deterministic(t *testing.T) {
	items := []workitem.WorkItem{
		resolvedItem("X-1", "Story", []string{"New", "In Progress", "Done"}, []float64{0, 0.3, 1.7}),
		resolvedItem("X-2", "Bug", []string{"New", "Done"}, []float64{0, 2.9}),
		resolvedItem("X-3", "Task", []string{"New", "Review", "Done"}, []float64{0, 1.1, 4.2}),
	}

	a := Aggregate(items, at(10))
	b := Aggregate(items, at(10))

	avgA, _ := a.AvgClosure()
	avgB, _ := b.AvgClosure()
	if avgA != avgB {
		t.Errorf("identical inputs produced different averages: %v vs %v", avgA, avgB)
	}
	for i, s := range a.States {
		if b.States[i] != s {
			t.Fatalf("state order differs between runs: %v vs %v", a.States, b.States)
		}
	}
}

func TestFilterByActor(t *testing.T) {
	items := []workitem.WorkItem{
		{ID: "F-1", Actor: "wlin"},
		{ID: "F-2", Actor: "mwessel"},
		{ID: "F-3", Actor: "wlin"},
	}

	filtered := FilterByActor(items, "wlin")
	if len(filtered) != 2 {
		t.Fatalf("filtered = %d items, want 2", len(filtered))
	}
	for _, item := range filtered {
		if item.Actor != "wlin" {
			t.Errorf("unexpected actor %q in filtered cohort", item.Actor)
		}
	}

	if got := FilterByActor(items, ""); len(got) != 3 {
		t.Errorf("empty actor should pass through, got %d items", len(got))
	}
}
