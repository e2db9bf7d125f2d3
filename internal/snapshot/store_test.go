package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"ai-impact/internal/workitem"
)

func TestSlug(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Before AI", "before-ai"},
		{"  Phase 2 (After AI!)  ", "phase-2-after-ai"},
		{"already-slugged", "already-slugged"},
	}
	for _, c := range cases {
		if got := Slug(c.name); got != c.want {
			t.Errorf("Slug(%q) = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestStore_RoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	resolved := created.Add(48 * time.Hour)
	items := []workitem.WorkItem{
		{
			ID:       "PROJ-2",
			Type:     "Bug",
			Created:  created.Add(time.Hour),
			Resolved: &resolved,
			Actor:    "wlin",
			Transitions: []workitem.StateTransition{
				{To: "New", At: created.Add(time.Hour)},
				{From: "New", To: "Closed", At: resolved},
			},
			AITools: []string{"Claude"},
		},
		{ID: "PROJ-1", Type: "Story", Created: created},
	}

	if err := store.Save("Before AI", "jira", items); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load("Before AI", "jira")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d items, want 2", len(loaded))
	}

	// Save orders by creation instant regardless of input order.
	if loaded[0].ID != "PROJ-1" || loaded[1].ID != "PROJ-2" {
		t.Errorf("order = %s, %s; want PROJ-1, PROJ-2", loaded[0].ID, loaded[1].ID)
	}

	got := loaded[1]
	if got.Resolved == nil || !got.Resolved.Equal(resolved) {
		t.Error("resolution instant lost in round trip")
	}
	if len(got.Transitions) != 2 || got.Transitions[1].To != "Closed" {
		t.Errorf("transitions lost in round trip: %+v", got.Transitions)
	}
	if len(got.AITools) != 1 || got.AITools[0] != "Claude" {
		t.Errorf("AI tools lost in round trip: %v", got.AITools)
	}
}

func TestStore_MissingSnapshotIsEmpty(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	items, err := store.Load("never fetched", "jira")
	if err != nil {
		t.Fatalf("Load of missing snapshot errored: %v", err)
	}
	if items != nil {
		t.Errorf("missing snapshot should load as nil, got %v", items)
	}
}

func TestStore_CorruptLinesSkipped(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	content := `{"id":"OK-1","type":"Story","created":"2024-03-01T10:00:00Z"}
this is not json
{"id":"OK-2","type":"Bug","created":"2024-03-02T10:00:00Z"}
`
	path := filepath.Join(dir, "jira_mixed.jsonl")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("fixture write failed: %v", err)
	}

	items, err := store.Load("mixed", "jira")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("loaded %d items, want 2 with the corrupt line dropped", len(items))
	}
	if items[0].ID != "OK-1" || items[1].ID != "OK-2" {
		t.Errorf("unexpected items: %s, %s", items[0].ID, items[1].ID)
	}
}
