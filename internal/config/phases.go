package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Phase is one configured analysis period. Start and End define the query
// window used when fetching; the effective date range of a phase is derived
// later from the resolution timestamps actually observed, never from here.
type Phase struct {
	Name  string
	Start string // YYYY-MM-DD
	End   string // YYYY-MM-DD
}

var phaseEntryRe = regexp.MustCompile(`"([^"]+)"`)

// ParsePhasesFile reads the shell-style phase configuration:
//
//	PHASES=(
//	  "Before AI|2024-01-01|2024-06-30"
//	  "After AI|2024-07-01|2024-12-31"
//	)
//
// Comment lines are skipped. The order of entries is the phase order used
// throughout the comparison.
func ParsePhasesFile(path string) ([]Phase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read phases file: %w", err)
	}
	phases := ParsePhases(string(data))
	if len(phases) == 0 {
		return nil, fmt.Errorf("no PHASES entries found in %s", path)
	}
	return phases, nil
}

// ParsePhases extracts phase triples from the configuration text.
func ParsePhases(content string) []Phase {
	var arrayLines []string
	inArray := false

	for _, line := range strings.Split(content, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "#") {
			continue
		}

		if !inArray {
			if idx := strings.Index(line, "PHASES=("); idx >= 0 {
				inArray = true
				rest := line[idx+len("PHASES=("):]
				arrayLines = append(arrayLines, rest)
				if strings.Contains(rest, ")") {
					break
				}
			}
			continue
		}

		arrayLines = append(arrayLines, line)
		if strings.Contains(line, ")") {
			break
		}
	}

	var phases []Phase
	for _, match := range phaseEntryRe.FindAllStringSubmatch(strings.Join(arrayLines, "\n"), -1) {
		parts := strings.Split(match[1], "|")
		if len(parts) != 3 {
			continue
		}
		phases = append(phases, Phase{
			Name:  strings.TrimSpace(parts[0]),
			Start: strings.TrimSpace(parts[1]),
			End:   strings.TrimSpace(parts[2]),
		})
	}
	return phases
}
