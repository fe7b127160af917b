package tracker

import (
	"context"
	"time"

	"github.com/prtrack/prtrack/internal/classify"
	"github.com/prtrack/prtrack/internal/github"
	"github.com/prtrack/prtrack/internal/models"
	"github.com/prtrack/prtrack/internal/output"
)

// Options controls one report run.
type Options struct {
	// IncludeClosed adds PRs closed within ClosedWindow to the report.
	IncludeClosed bool
	// ClosedWindow bounds how far back the closed listing scans.
	// Zero means DefaultClosedWindow.
	ClosedWindow time.Duration
	// Workers caps concurrent enrichment. Zero means DefaultWorkers.
	Workers int
	// Now freezes the run timestamp. Zero means time.Now in UTC.
	Now time.Time
}

// Run executes the full pipeline: fetch, enrich, classify. Listing failures
// abort the run; enrichment failures degrade per PR.
func Run(ctx context.Context, client github.Client, ui *output.UI, opts Options) (*models.Report, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	fetcher := NewFetcher(client)

	open, err := fetcher.FetchOpen(ctx)
	if err != nil {
		return nil, err
	}
	ui.VerboseLog("fetched %d open PRs", len(open))

	var closed []models.PullRequest
	if opts.IncludeClosed {
		window := opts.ClosedWindow
		if window <= 0 {
			window = DefaultClosedWindow
		}
		closed, err = fetcher.FetchClosed(ctx, now, now.Add(-window))
		if err != nil {
			return nil, err
		}
		ui.VerboseLog("fetched %d recently closed PRs", len(closed))
	}

	enricher := NewEnricher(client, ui)
	numbers := make([]int, 0, len(open)+len(closed))
	for _, pr := range open {
		numbers = append(numbers, pr.Number)
	}
	for _, pr := range closed {
		numbers = append(numbers, pr.Number)
	}
	enrichments := enricher.EnrichAll(ctx, numbers, opts.Workers)

	reviewersByNumber := make(map[int][]models.ReviewEntry, len(enrichments))
	for number, enr := range enrichments {
		reviewersByNumber[number] = enr.Reviewers
	}
	for i := range open {
		if enr, ok := enrichments[open[i].Number]; ok {
			open[i].LastCommentAt = enr.LastCommentAt
		}
	}

	classifier := classify.NewClassifier(now)
	classifiedOpen, summary := classifier.ClassifyAll(open, reviewersByNumber)

	classifiedClosed := make([]models.ClassifiedPullRequest, 0, len(closed))
	for _, pr := range closed {
		classifiedClosed = append(classifiedClosed, classifier.Classify(pr, reviewersByNumber[pr.Number]))
	}

	return &models.Report{
		Now:     now,
		Open:    classifiedOpen,
		Closed:  classifiedClosed,
		Summary: summary,
	}, nil
}
