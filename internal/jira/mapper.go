package jira

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"

	"ai-impact/internal/metrics"
	"ai-impact/internal/timeutil"
	"ai-impact/internal/workitem"
)

// MapIssue transforms a Jira DTO into a normalized WorkItem.
//
// The changelog is reduced to status transitions sorted by timestamp, with a
// synthesized leading transition into the issue's initial status at creation
// time (the status it occupied before the first recorded change). Histories
// whose timestamp fails to parse are dropped with a diagnostic; a created
// date that fails to parse invalidates the whole record.
func MapIssue(dto IssueDTO) (workitem.WorkItem, []workitem.Diagnostic, error) {
	var diags []workitem.Diagnostic

	created, err := timeutil.ParseInstant(dto.Fields.Created)
	if err != nil {
		return workitem.WorkItem{}, nil, err
	}

	item := workitem.WorkItem{
		ID:      dto.Key,
		Type:    dto.Fields.IssueType.Name,
		Created: created,
	}

	if dto.Fields.ResolutionDate != "" {
		resolved, err := timeutil.ParseInstant(dto.Fields.ResolutionDate)
		if err != nil {
			return workitem.WorkItem{}, nil, err
		}
		item.Resolved = &resolved
	}

	if a := dto.Fields.Assignee; a != nil {
		if a.Name != "" {
			item.Actor = a.Name
		} else {
			item.Actor = a.EmailAddress
		}
	}

	var transitions []workitem.StateTransition
	if dto.Changelog != nil {
		for _, h := range dto.Changelog.Histories {
			at, err := timeutil.ParseInstant(h.Created)
			if err != nil {
				diags = append(diags, workitem.Diagnostic{
					ItemID: dto.Key,
					Kind:   workitem.DiagSkippedRecord,
					Detail: "changelog entry with unparseable timestamp dropped: " + h.Created,
				})
				continue
			}
			for _, itm := range h.Items {
				if itm.Field != "status" {
					continue
				}
				transitions = append(transitions, workitem.StateTransition{
					From: itm.FromString,
					To:   itm.ToString,
					At:   at,
				})
			}
		}
	}

	slices.SortStableFunc(transitions, func(a, b workitem.StateTransition) int {
		return a.At.Compare(b.At)
	})

	// Seed the walk: the issue sat in the first transition's from-status
	// from creation until that transition. Issues with no recorded
	// transitions spent their whole life in the current status.
	initial := dto.Fields.Status.Name
	if len(transitions) > 0 && transitions[0].From != "" {
		initial = transitions[0].From
	}
	if initial != "" {
		item.Transitions = append(item.Transitions, workitem.StateTransition{To: initial, At: created})
	}
	item.Transitions = append(item.Transitions, transitions...)

	return item, diags, nil
}

// MapSearchResults maps a batch of DTOs, isolating per-record failures:
// a record that cannot be normalized is skipped with a warning and a
// diagnostic, never aborting the batch. When a non-empty batch loses every
// record this way the failure is systemic, not per-record, and the batch
// fails hard with metrics.ErrNoCohortData.
func MapSearchResults(dtos []IssueDTO) ([]workitem.WorkItem, []workitem.Diagnostic, error) {
	items := make([]workitem.WorkItem, 0, len(dtos))
	var diags []workitem.Diagnostic

	for _, dto := range dtos {
		item, itemDiags, err := MapIssue(dto)
		diags = append(diags, itemDiags...)
		if err != nil {
			log.Warn().Err(err).Str("key", dto.Key).Msg("Skipping issue with invalid record")
			diags = append(diags, workitem.Diagnostic{
				ItemID: dto.Key,
				Kind:   workitem.DiagSkippedRecord,
				Detail: err.Error(),
			})
			continue
		}
		items = append(items, item)
	}

	if len(dtos) > 0 && len(items) == 0 {
		return nil, diags, fmt.Errorf("%d issues fetched, none survived normalization: %w", len(dtos), metrics.ErrNoCohortData)
	}

	return items, diags, nil
}
