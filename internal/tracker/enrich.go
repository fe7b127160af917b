package tracker

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/prtrack/prtrack/internal/github"
	"github.com/prtrack/prtrack/internal/models"
	"github.com/prtrack/prtrack/internal/output"
)

// DefaultWorkers caps concurrent enrichment lookups so a large repository
// doesn't burn through the API rate limit.
const DefaultWorkers = 10

// Enrichment is the best-effort per-PR data gathered beyond the listing.
type Enrichment struct {
	Reviewers     []models.ReviewEntry
	LastCommentAt *time.Time
}

// Enricher resolves reviewer and comment data for individual PRs. Results are
// cached per PR number for the lifetime of the Enricher, since review state
// is not expected to change mid-run.
type Enricher struct {
	client github.Client
	ui     *output.UI

	mu    sync.Mutex
	cache map[int]Enrichment
}

// NewEnricher returns an Enricher backed by the given API client. Lookup
// failures are reported through ui as warnings, never as errors.
func NewEnricher(client github.Client, ui *output.UI) *Enricher {
	return &Enricher{
		client: client,
		ui:     ui,
		cache:  make(map[int]Enrichment),
	}
}

// Enrich returns the reviewer set and last comment time for one PR. Each of
// the three lookups degrades independently: a failed lookup contributes
// nothing rather than failing the enrichment.
func (e *Enricher) Enrich(ctx context.Context, number int) Enrichment {
	e.mu.Lock()
	if cached, ok := e.cache[number]; ok {
		e.mu.Unlock()
		return cached
	}
	e.mu.Unlock()

	byReviewer := make(map[string]models.ReviewState)

	if rr, err := e.client.RequestedReviewers(ctx, number); err != nil {
		e.ui.Warning("PR #%d: requested reviewers lookup failed: %v", number, err)
	} else {
		for _, u := range rr.Users {
			byReviewer[u.Login] = models.ReviewStatePending
		}
		for _, t := range rr.Teams {
			byReviewer[t.Name] = models.ReviewStatePending
		}
	}

	if reviews, err := e.client.Reviews(ctx, number); err != nil {
		e.ui.Warning("PR #%d: reviews lookup failed: %v", number, err)
	} else {
		// Reviews arrive in chronological order, so the last state written
		// for a reviewer wins, and any submitted review supersedes a
		// pending request for the same identity.
		for _, r := range reviews {
			if r.User == nil {
				continue
			}
			byReviewer[r.User.Login] = reviewState(r.State)
		}
	}

	enr := Enrichment{Reviewers: make([]models.ReviewEntry, 0, len(byReviewer))}
	for reviewer, state := range byReviewer {
		enr.Reviewers = append(enr.Reviewers, models.ReviewEntry{Reviewer: reviewer, State: state})
	}
	models.SortReviewEntries(enr.Reviewers)

	if last, err := e.client.LastCommentTime(ctx, number); err != nil {
		e.ui.Warning("PR #%d: comments lookup failed: %v", number, err)
	} else {
		enr.LastCommentAt = last
	}

	e.mu.Lock()
	e.cache[number] = enr
	e.mu.Unlock()
	return enr
}

// EnrichAll runs Enrich over every PR using a bounded worker pool and returns
// the results keyed by PR number. One PR's failure never blocks the others;
// output ordering is decided later by the classifier, not by completion order.
func (e *Enricher) EnrichAll(ctx context.Context, numbers []int, workers int) map[int]Enrichment {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[int]Enrichment, len(numbers))
		sem     = make(chan struct{}, workers)
	)

	for _, number := range numbers {
		wg.Add(1)
		sem <- struct{}{}
		go func(number int) {
			defer wg.Done()
			defer func() { <-sem }()

			enr := e.Enrich(ctx, number)
			mu.Lock()
			results[number] = enr
			mu.Unlock()
		}(number)
	}
	wg.Wait()

	return results
}

func reviewState(apiState string) models.ReviewState {
	switch strings.ToUpper(apiState) {
	case "APPROVED":
		return models.ReviewStateApproved
	case "CHANGES_REQUESTED":
		return models.ReviewStateChangesRequested
	case "DISMISSED":
		return models.ReviewStateDismissed
	default:
		return models.ReviewStateCommented
	}
}
