package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// searchBatchSize matches the page size the search endpoint handles well.
const searchBatchSize = 50

// searchFields restricts the response to the fields the mapper reads.
const searchFields = "created,resolutiondate,status,issuetype,assignee"

// Config holds the connection settings for Jira.
type Config struct {
	BaseURL string
	Token   string // personal access token, sent as Bearer
	// RequestDelay spaces out search requests to stay polite with the
	// instance. Zero means one request per second.
	RequestDelay time.Duration
}

// Client is a minimal Jira REST client for issue searches.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a Client with a rate limiter derived from the
// configured request delay.
func NewClient(cfg Config) *Client {
	delay := cfg.RequestDelay
	if delay <= 0 {
		delay = time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 90 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(delay), 1),
	}
}

// Search runs one page of a JQL search. expandChangelog requests the status
// transition history alongside the fields.
func (c *Client) Search(ctx context.Context, jql string, startAt, maxResults int, expandChangelog bool) (*SearchResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("jql", jql)
	params.Set("fields", searchFields)
	params.Set("startAt", strconv.Itoa(startAt))
	params.Set("maxResults", strconv.Itoa(maxResults))
	if expandChangelog {
		params.Set("expand", "changelog")
	}

	endpoint := fmt.Sprintf("%s/rest/api/2/search?%s", c.cfg.BaseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	log.Debug().Str("jql", jql).Int("startAt", startAt).Msg("Jira search request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jira search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("jira search returned %d: %s", resp.StatusCode, body)
	}

	var result SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	return &result, nil
}

// FetchAll pages through every issue matching the query, changelog included.
func (c *Client) FetchAll(ctx context.Context, q Query) ([]IssueDTO, error) {
	jql := BuildJQL(q, time.Now())

	// Probe for the total first so pagination has a fixed bound.
	probe, err := c.Search(ctx, jql, 0, 1, false)
	if err != nil {
		return nil, err
	}
	total := probe.Total
	log.Info().Str("jql", jql).Int("total", total).Msg("Jira search scoped")

	var all []IssueDTO
	for startAt := 0; startAt < total; startAt += searchBatchSize {
		page, err := c.Search(ctx, jql, startAt, searchBatchSize, true)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch batch at %d: %w", startAt, err)
		}
		all = append(all, page.Issues...)
		log.Debug().Int("fetched", len(all)).Int("total", total).Msg("Jira batch fetched")
		if len(page.Issues) == 0 {
			break
		}
	}

	return all, nil
}
