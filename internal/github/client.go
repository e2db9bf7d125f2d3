// Package github fetches merged pull requests and normalizes them into
// work items, so PRs flow through the same state-history pipeline as
// issues. Review submissions become synthetic workflow transitions.
package github

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"ai-impact/internal/aiassist"
	"ai-impact/internal/metrics"
	"ai-impact/internal/workitem"
)

// PR workflow states synthesized from the review timeline.
const (
	StateOpen             = "Open"
	StateInReview         = "In Review"
	StateChangesRequested = "Changes Requested"
	StateMerged           = "Merged"
)

// Config holds the connection settings for GitHub.
type Config struct {
	Token string
	Owner string
	Repo  string
}

// Client wraps the GitHub API for merged-PR collection.
type Client struct {
	gh      *github.Client
	owner   string
	repo    string
	limiter *rate.Limiter
}

// NewClient creates an authenticated client. Secondary rate limits on the
// REST API are avoided by spacing detail requests.
func NewClient(cfg Config) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	tc := oauth2.NewClient(context.Background(), ts)
	return &Client{
		gh:      github.NewClient(tc),
		owner:   cfg.Owner,
		repo:    cfg.Repo,
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
	}
}

// FetchMergedPRs returns the merged, human-authored PRs of the window
// [start, end] as normalized work items. Bot-authored PRs are excluded
// before aggregation ever sees them.
func (c *Client) FetchMergedPRs(ctx context.Context, start, end time.Time) ([]workitem.WorkItem, error) {
	// The list endpoint cannot filter on merge date, so we page through
	// closed PRs newest-updated first and stop once a whole page was last
	// touched before the window opened.
	opts := &github.PullRequestListOptions{
		State:       "closed",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: 100},
	}
	// The window end is inclusive of its whole day.
	windowEnd := end.AddDate(0, 0, 1)

	var selected []*github.PullRequest
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		prs, resp, err := c.gh.PullRequests.List(ctx, c.owner, c.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list pull requests: %w", err)
		}
		if len(prs) == 0 {
			break
		}

		pageOldest := time.Time{}
		for _, pr := range prs {
			if pageOldest.IsZero() || pr.UpdatedAt.Time.Before(pageOldest) {
				pageOldest = pr.UpdatedAt.Time
			}
			if pr.MergedAt == nil {
				continue
			}
			author := pr.GetUser().GetLogin()
			if aiassist.IsBot(author) {
				log.Debug().Int("pr", pr.GetNumber()).Str("author", author).Msg("Skipping bot-authored PR")
				continue
			}
			mergedAt := pr.MergedAt.Time
			if !mergedAt.Before(start) && mergedAt.Before(windowEnd) {
				selected = append(selected, pr)
			}
		}

		// PRs can be updated after merge, so the cutoff is on update time.
		if pageOldest.Before(start) || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	log.Info().Int("count", len(selected)).
		Str("repo", c.owner+"/"+c.repo).
		Time("start", start).Time("end", end).
		Msg("Merged PRs selected")

	items := make([]workitem.WorkItem, 0, len(selected))
	for _, pr := range selected {
		item, err := c.buildWorkItem(ctx, pr)
		if err != nil {
			// One broken PR must not sink the batch.
			log.Warn().Err(err).Int("pr", pr.GetNumber()).Msg("Skipping PR with fetch failure")
			continue
		}
		items = append(items, item)
	}

	// Losing every selected PR is a systemic failure, not per-record noise.
	// An empty window stays a valid empty cohort.
	if len(selected) > 0 && len(items) == 0 {
		return nil, fmt.Errorf("%d merged PRs fetched, none survived normalization: %w", len(selected), metrics.ErrNoCohortData)
	}

	return items, nil
}

func (c *Client) buildWorkItem(ctx context.Context, pr *github.PullRequest) (workitem.WorkItem, error) {
	number := pr.GetNumber()

	messages, err := c.commitMessages(ctx, number)
	if err != nil {
		return workitem.WorkItem{}, err
	}
	reviews, err := c.reviews(ctx, number)
	if err != nil {
		return workitem.WorkItem{}, err
	}

	merged := pr.MergedAt.Time.UTC()
	item := workitem.WorkItem{
		ID:             fmt.Sprintf("%s/%s#%d", c.owner, c.repo, number),
		Created:        pr.CreatedAt.Time.UTC(),
		Resolved:       &merged,
		Actor:          pr.GetUser().GetLogin(),
		CommitMessages: messages,
		AITools:        aiassist.Classify(messages),
		Transitions:    reviewTransitions(pr.CreatedAt.Time.UTC(), merged, reviews),
	}
	return item, nil
}

func (c *Client) commitMessages(ctx context.Context, number int) ([]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	commits, _, err := c.gh.PullRequests.ListCommits(ctx, c.owner, c.repo, number, &github.ListOptions{PerPage: 100})
	if err != nil {
		return nil, fmt.Errorf("failed to list commits for #%d: %w", number, err)
	}
	messages := make([]string, 0, len(commits))
	for _, commit := range commits {
		messages = append(messages, commit.GetCommit().GetMessage())
	}
	return messages, nil
}

func (c *Client) reviews(ctx context.Context, number int) ([]*github.PullRequestReview, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	reviews, _, err := c.gh.PullRequests.ListReviews(ctx, c.owner, c.repo, number, &github.ListOptions{PerPage: 100})
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews for #%d: %w", number, err)
	}
	return reviews, nil
}

// reviewTransitions derives a linear PR workflow from the review timeline:
// Open from creation, In Review at the first submission, Changes Requested
// while a rejection stands, Merged at the merge instant.
func reviewTransitions(created, merged time.Time, reviews []*github.PullRequestReview) []workitem.StateTransition {
	transitions := []workitem.StateTransition{{To: StateOpen, At: created}}

	submitted := make([]*github.PullRequestReview, 0, len(reviews))
	for _, r := range reviews {
		if r.SubmittedAt != nil {
			submitted = append(submitted, r)
		}
	}
	sort.SliceStable(submitted, func(i, j int) bool {
		return submitted[i].SubmittedAt.Time.Before(submitted[j].SubmittedAt.Time)
	})

	current := StateOpen
	for _, r := range submitted {
		at := r.SubmittedAt.Time.UTC()
		next := StateInReview
		if r.GetState() == "CHANGES_REQUESTED" {
			next = StateChangesRequested
		}
		if next == current {
			continue
		}
		transitions = append(transitions, workitem.StateTransition{From: current, To: next, At: at})
		current = next
	}

	transitions = append(transitions, workitem.StateTransition{From: current, To: StateMerged, At: merged})
	return transitions
}
