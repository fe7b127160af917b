package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultBaseURL is the public GitHub REST API endpoint.
const DefaultBaseURL = "https://api.github.com"

// PullRecord is one pull request as returned by the list endpoint. Fields
// whose absence is legal are pointers.
type PullRecord struct {
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	State     string     `json:"state"`
	HTMLURL   string     `json:"html_url"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ClosedAt  *time.Time `json:"closed_at"`
	User      *Account   `json:"user"`
}

// Account is a user or bot account reference.
type Account struct {
	Login string `json:"login"`
}

// Team is an organization team reference.
type Team struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// RequestedReviewers holds the pending (not yet submitted) reviewers of a PR.
type RequestedReviewers struct {
	Users []Account `json:"users"`
	Teams []Team    `json:"teams"`
}

// Review is one submitted review on a PR.
type Review struct {
	User        *Account   `json:"user"`
	State       string     `json:"state"` // APPROVED, CHANGES_REQUESTED, COMMENTED, DISMISSED
	SubmittedAt *time.Time `json:"submitted_at"`
}

// IssueComment is one issue-style comment on a PR.
type IssueComment struct {
	UpdatedAt time.Time `json:"updated_at"`
}

// Client is the read-only surface of the PR source consumed by the tracker.
type Client interface {
	// ListPullRequests fetches one page of PRs in the given state. Closed
	// listings are ordered by update time descending; open listings use the
	// API default order.
	ListPullRequests(ctx context.Context, state string, page, perPage int) ([]PullRecord, error)

	// RequestedReviewers returns the reviewers (users and teams) with a
	// pending review request on the PR.
	RequestedReviewers(ctx context.Context, number int) (*RequestedReviewers, error)

	// Reviews returns the submitted reviews on the PR in chronological order.
	Reviews(ctx context.Context, number int) ([]Review, error)

	// LastCommentTime returns the update time of the most recent issue
	// comment on the PR, or nil when there are none.
	LastCommentTime(ctx context.Context, number int) (*time.Time, error)
}

// APIError is a non-success response from the API.
type APIError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: %s returned %d: %s", e.URL, e.StatusCode, e.Body)
}

// RESTClient implements Client against the GitHub REST API v3.
type RESTClient struct {
	BaseURL string
	Owner   string
	Repo    string
	Token   string

	HTTP *http.Client
}

// NewClient returns a RESTClient for the given repository. The token is sent
// as a "token" authorization header on every request.
func NewClient(owner, repo, token string) *RESTClient {
	return &RESTClient{
		BaseURL: DefaultBaseURL,
		Owner:   owner,
		Repo:    repo,
		Token:   token,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *RESTClient) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.Token != "" {
		req.Header.Set("Authorization", "token "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("github: GET %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &APIError{StatusCode: resp.StatusCode, URL: u, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("github: decode %s: %w", u, err)
	}
	return nil
}

func (c *RESTClient) repoPath(suffix string) string {
	return fmt.Sprintf("/repos/%s/%s%s", c.Owner, c.Repo, suffix)
}

func (c *RESTClient) ListPullRequests(ctx context.Context, state string, page, perPage int) ([]PullRecord, error) {
	q := url.Values{
		"state":    {state},
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(perPage)},
	}
	if state == "closed" {
		q.Set("sort", "updated")
		q.Set("direction", "desc")
	}

	var prs []PullRecord
	if err := c.get(ctx, c.repoPath("/pulls"), q, &prs); err != nil {
		return nil, err
	}
	return prs, nil
}

func (c *RESTClient) RequestedReviewers(ctx context.Context, number int) (*RequestedReviewers, error) {
	var rr RequestedReviewers
	path := c.repoPath(fmt.Sprintf("/pulls/%d/requested_reviewers", number))
	if err := c.get(ctx, path, nil, &rr); err != nil {
		return nil, err
	}
	return &rr, nil
}

func (c *RESTClient) Reviews(ctx context.Context, number int) ([]Review, error) {
	var reviews []Review
	path := c.repoPath(fmt.Sprintf("/pulls/%d/reviews", number))
	if err := c.get(ctx, path, nil, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

func (c *RESTClient) LastCommentTime(ctx context.Context, number int) (*time.Time, error) {
	q := url.Values{
		"per_page":  {"1"},
		"sort":      {"updated"},
		"direction": {"desc"},
	}
	var comments []IssueComment
	path := c.repoPath(fmt.Sprintf("/issues/%d/comments", number))
	if err := c.get(ctx, path, q, &comments); err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return nil, nil
	}
	t := comments[0].UpdatedAt
	return &t, nil
}
