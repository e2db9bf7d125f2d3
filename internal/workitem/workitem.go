// Package workitem defines the normalized unit of analysis shared by the
// Jira and GitHub fetchers and the metric pipeline. Items are constructed
// once at the input boundary and treated as read-only afterwards.
package workitem

import "time"

// WorkItem is a single issue or pull request, normalized into the shape the
// analysis core consumes. A nil Resolved means the item is still open.
type WorkItem struct {
	ID       string     `json:"id"`
	Type     string     `json:"type,omitempty"` // Story, Task, Bug, Epic; empty for PRs
	Created  time.Time  `json:"created"`
	Resolved *time.Time `json:"resolved,omitempty"`
	Actor    string     `json:"actor,omitempty"`

	// Transitions are ordered as received from the source. The reconstructor
	// tolerates ordering violations; it does not reorder.
	Transitions []StateTransition `json:"transitions,omitempty"`

	// AITools is the set of AI tools detected in the item's commit trailers.
	// Empty means no AI assistance detected; it is never a third state.
	AITools []string `json:"aiTools,omitempty"`

	// CommitMessages carries the raw commit messages of a PR for
	// classification. Unset for issues.
	CommitMessages []string `json:"commitMessages,omitempty"`
}

// StateTransition is one recorded change of workflow state.
// From is empty for the initial transition into the workflow.
type StateTransition struct {
	From string    `json:"from,omitempty"`
	To   string    `json:"to"`
	At   time.Time `json:"at"`
}

// IsResolved reports whether the item has a resolution or merge instant.
func (w WorkItem) IsResolved() bool {
	return w.Resolved != nil
}

// CurrentState returns the state the item occupies after its last
// transition, or the empty string if it never transitioned.
func (w WorkItem) CurrentState() string {
	if len(w.Transitions) == 0 {
		return ""
	}
	return w.Transitions[len(w.Transitions)-1].To
}

// Diagnostic records a non-fatal data-quality condition observed while
// analyzing a single item. Diagnostics never abort a batch.
type Diagnostic struct {
	ItemID string `json:"itemId"`
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// Diagnostic kinds.
const (
	DiagOutOfOrder       = "out_of_order_transition"
	DiagNegativeInterval = "negative_interval"
	DiagSkippedRecord    = "skipped_record"
)
