// Package aiassist classifies work items as AI-assisted by scanning commit
// messages for tool trailers, and provides the bot-author predicate used to
// exclude automated PRs from cohorts before aggregation.
package aiassist

import (
	"sort"
	"strings"
)

// knownTools are the AI tools recognized in Assisted-by trailers.
var knownTools = []string{"Claude", "Cursor", "Gemini"}

// botUsers are automated PR authors excluded from human metrics.
var botUsers = map[string]bool{
	"coderabbit":           true,
	"coderabbitai":         true,
	"coderabbit[bot]":      true,
	"dependabot":           true,
	"dependabot[bot]":      true,
	"renovate":             true,
	"renovate[bot]":        true,
	"github-actions":       true,
	"github-actions[bot]":  true,
	"red-hat-konflux":      true,
	"red-hat-konflux[bot]": true,
}

// Classify scans commit messages for recognized trailer markers and returns
// the sorted set of distinct tools found. An empty result is the "non-AI"
// classification; there is no third state.
func Classify(messages []string) []string {
	found := make(map[string]bool)
	for _, msg := range messages {
		lower := strings.ToLower(msg)
		for _, tool := range knownTools {
			if strings.Contains(lower, "assisted-by: "+strings.ToLower(tool)) {
				found[tool] = true
			}
		}
		// Some tools sign commits as co-authors instead of using the
		// Assisted-by trailer.
		if strings.Contains(msg, "Co-Authored-By: Claude") {
			found["Claude"] = true
		}
	}

	tools := make([]string, 0, len(found))
	for tool := range found {
		tools = append(tools, tool)
	}
	sort.Strings(tools)
	return tools
}

// CommitStats counts how many of the messages carry an AI marker.
func CommitStats(messages []string) (aiCommits, total int) {
	for _, msg := range messages {
		if len(Classify([]string{msg})) > 0 {
			aiCommits++
		}
	}
	return aiCommits, len(messages)
}

// IsBot reports whether a username belongs to an automated account.
func IsBot(login string) bool {
	if login == "" {
		return false
	}
	lower := strings.ToLower(login)
	return botUsers[lower] || strings.HasSuffix(lower, "[bot]")
}
