// Package classify derives per-PR facts (age, approvals, readiness tier,
// staleness bucket) and summary counts from fetched and enriched data. All
// functions are pure: every computation runs against the single frozen "now"
// captured at run start, so long batches can't skew age math.
package classify

import (
	"sort"
	"time"

	"github.com/prtrack/prtrack/internal/models"
)

// Staleness thresholds in whole days since creation.
const (
	AgingMinDays = 23
	StaleMinDays = 31
)

// Classifier computes derived facts against one frozen timestamp.
type Classifier struct {
	Now time.Time
}

// NewClassifier returns a Classifier pinned to the given instant.
func NewClassifier(now time.Time) *Classifier {
	return &Classifier{Now: now}
}

// Classify derives facts for a single PR and its reviewer set.
func (c *Classifier) Classify(pr models.PullRequest, reviewers []models.ReviewEntry) models.ClassifiedPullRequest {
	days, hours := pr.Age(c.Now)
	approvals := models.CountApprovals(reviewers)

	return models.ClassifiedPullRequest{
		PullRequest: pr,
		Reviewers:   reviewers,
		AgeDays:     days,
		AgeHours:    hours,
		Approvals:   approvals,
		Tier:        tierFor(approvals),
		Bucket:      bucketFor(days),
	}
}

// ClassifyAll classifies every PR, applies the default sort (approvals
// descending, then creation date ascending), and computes the summary.
func (c *Classifier) ClassifyAll(prs []models.PullRequest, reviewersByNumber map[int][]models.ReviewEntry) ([]models.ClassifiedPullRequest, models.Summary) {
	classified := make([]models.ClassifiedPullRequest, 0, len(prs))
	for _, pr := range prs {
		classified = append(classified, c.Classify(pr, reviewersByNumber[pr.Number]))
	}

	SortDefault(classified)

	summary := models.Summary{Total: len(classified)}
	for _, pr := range classified {
		if len(pr.Reviewers) == 0 {
			summary.NoReviewers++
		}
		if pr.Bucket == models.BucketStale {
			summary.Stale++
		}
	}
	return classified, summary
}

// SortDefault orders PRs by approval count descending, breaking ties by
// creation date ascending so the oldest surface first within each tier.
func SortDefault(prs []models.ClassifiedPullRequest) {
	sort.SliceStable(prs, func(i, j int) bool {
		if prs[i].Approvals != prs[j].Approvals {
			return prs[i].Approvals > prs[j].Approvals
		}
		return prs[i].CreatedAt.Before(prs[j].CreatedAt)
	})
}

func tierFor(approvals int) models.ReadinessTier {
	switch {
	case approvals >= 2:
		return models.TierReady
	case approvals == 1:
		return models.TierPartial
	default:
		return models.TierNone
	}
}

func bucketFor(ageDays int) models.StalenessBucket {
	switch {
	case ageDays >= StaleMinDays:
		return models.BucketStale
	case ageDays >= AgingMinDays:
		return models.BucketAging
	default:
		return models.BucketFresh
	}
}
