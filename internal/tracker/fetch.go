// Package tracker drives the pull-request aggregation pipeline: paginated
// fetch, per-PR reviewer enrichment, and bounded concurrent fan-out.
package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/prtrack/prtrack/internal/github"
	"github.com/prtrack/prtrack/internal/models"
)

// PageSize is the number of PRs requested per list page.
const PageSize = 100

// DefaultClosedWindow is how far back FetchClosed looks when the caller
// supplies a zero cutoff.
const DefaultClosedWindow = 7 * 24 * time.Hour

// Fetcher retrieves pull requests from the source, one full listing per call.
type Fetcher struct {
	client github.Client
}

// NewFetcher returns a Fetcher backed by the given API client.
func NewFetcher(client github.Client) *Fetcher {
	return &Fetcher{client: client}
}

// FetchOpen returns every open PR, accumulating pages until an empty page.
// Any page failure aborts the whole fetch; partial results are discarded.
func (f *Fetcher) FetchOpen(ctx context.Context) ([]models.PullRequest, error) {
	var prs []models.PullRequest
	for page := 1; ; page++ {
		records, err := f.client.ListPullRequests(ctx, "open", page, PageSize)
		if err != nil {
			return nil, fmt.Errorf("list open PRs page %d: %w", page, err)
		}
		if len(records) == 0 {
			return prs, nil
		}
		for _, rec := range records {
			prs = append(prs, toPullRequest(rec))
		}
	}
}

// FetchClosed returns PRs closed on or after the cutoff. Listings are ordered
// by update time descending, which approximates close-time order; the first
// item closed before the cutoff terminates the entire fetch. A zero cutoff
// defaults to now minus DefaultClosedWindow.
func (f *Fetcher) FetchClosed(ctx context.Context, now time.Time, cutoff time.Time) ([]models.PullRequest, error) {
	if cutoff.IsZero() {
		cutoff = now.Add(-DefaultClosedWindow)
	}

	var prs []models.PullRequest
	for page := 1; ; page++ {
		records, err := f.client.ListPullRequests(ctx, "closed", page, PageSize)
		if err != nil {
			return nil, fmt.Errorf("list closed PRs page %d: %w", page, err)
		}
		if len(records) == 0 {
			return prs, nil
		}
		for _, rec := range records {
			if rec.ClosedAt == nil {
				continue
			}
			if rec.ClosedAt.Before(cutoff) {
				return prs, nil
			}
			prs = append(prs, toPullRequest(rec))
		}
	}
}

func toPullRequest(rec github.PullRecord) models.PullRequest {
	pr := models.PullRequest{
		Number:    rec.Number,
		Title:     rec.Title,
		URL:       rec.HTMLURL,
		State:     rec.State,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
		ClosedAt:  rec.ClosedAt,
	}
	if rec.User != nil {
		pr.Author = rec.User.Login
	}
	return pr
}
