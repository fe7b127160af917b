package models

import (
	"sort"
	"time"
)

// ReadinessTier classifies a PR's merge-readiness by approval count.
type ReadinessTier string

const (
	TierNone    ReadinessTier = "none"    // 0 approvals
	TierPartial ReadinessTier = "partial" // 1 approval
	TierReady   ReadinessTier = "ready"   // 2+ approvals
)

// Glyph returns the marker used for the tier in Markdown output.
func (t ReadinessTier) Glyph() string {
	switch t {
	case TierReady:
		return "\U0001F7E2" // green circle
	case TierPartial:
		return "\U0001F7E1" // yellow circle
	default:
		return "\U0001F534" // red circle
	}
}

// StalenessBucket classifies a PR's age relative to the run timestamp.
type StalenessBucket string

const (
	BucketFresh StalenessBucket = "fresh"
	BucketAging StalenessBucket = "aging" // 23-30 days old
	BucketStale StalenessBucket = "stale" // over 30 days old
)

// ClassifiedPullRequest is a PullRequest plus its reviewers and the facts
// derived from them against a single frozen "now".
type ClassifiedPullRequest struct {
	PullRequest
	Reviewers []ReviewEntry
	AgeDays   int
	AgeHours  int
	Approvals int
	Tier      ReadinessTier
	Bucket    StalenessBucket
}

// Summary holds the headline counts for a report.
type Summary struct {
	Total       int
	NoReviewers int
	Stale       int
}

// Report is the fully classified, sorted output of one run.
type Report struct {
	Now     time.Time
	Open    []ClassifiedPullRequest // default sort: approvals desc, created asc
	Closed  []ClassifiedPullRequest // recently closed, optional
	Summary Summary
}

// StaleOldestFirst returns the open PRs in the stale bucket sorted by
// creation date ascending. The input slice is not modified.
func (r *Report) StaleOldestFirst() []ClassifiedPullRequest {
	return filterByBucketOldestFirst(r.Open, BucketStale)
}

// AgingOldestFirst returns the open PRs in the aging bucket sorted by
// creation date ascending.
func (r *Report) AgingOldestFirst() []ClassifiedPullRequest {
	return filterByBucketOldestFirst(r.Open, BucketAging)
}

func filterByBucketOldestFirst(prs []ClassifiedPullRequest, bucket StalenessBucket) []ClassifiedPullRequest {
	var out []ClassifiedPullRequest
	for _, pr := range prs {
		if pr.Bucket == bucket {
			out = append(out, pr)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
