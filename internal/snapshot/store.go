// Package snapshot persists fetched phase cohorts as JSONL files so that
// comparisons can be re-run without refetching from the APIs. The files are
// a cache of normalized records, not live state: each analysis run loads a
// fresh snapshot into memory and never mutates it.
package snapshot

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"ai-impact/internal/workitem"
)

// Store reads and writes phase snapshots under one directory.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Slug turns a phase name into a stable filename component.
func Slug(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, slug)
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	return strings.Trim(slug, "-")
}

func (s *Store) path(phase, kind string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.jsonl", kind, Slug(phase)))
}

// Save writes one cohort, one item per line, replacing any previous
// snapshot for the phase. Items are sorted by creation instant so repeated
// fetches of the same data produce identical files.
func (s *Store) Save(phase, kind string, items []workitem.WorkItem) error {
	sorted := make([]workitem.WorkItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Created.Equal(sorted[j].Created) {
			return sorted[i].Created.Before(sorted[j].Created)
		}
		return sorted[i].ID < sorted[j].ID
	})

	path := s.path(phase, kind)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, item := range sorted {
		line, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to marshal item %s: %w", item.ID, err)
		}
		writer.Write(line)
		writer.WriteByte('\n')
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	log.Info().Str("path", path).Int("items", len(sorted)).Msg("Snapshot saved")
	return nil
}

// Load reads one cohort back. A missing snapshot is not an error; it
// returns an empty cohort so callers can render the phase as having no data.
func (s *Store) Load(phase, kind string) ([]workitem.WorkItem, error) {
	path := s.path(phase, kind)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer file.Close()

	var items []workitem.WorkItem
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var item workitem.WorkItem
		if err := json.Unmarshal(line, &item); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Skipping corrupt snapshot line")
			continue
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	return items, nil
}
