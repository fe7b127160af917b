package models

import "sort"

// ReviewState represents the status of a reviewer on a PR.
type ReviewState string

const (
	ReviewStatePending          ReviewState = "no action"
	ReviewStateApproved         ReviewState = "approved"
	ReviewStateChangesRequested ReviewState = "changes requested"
	ReviewStateCommented        ReviewState = "commented"
	ReviewStateDismissed        ReviewState = "dismissed"
)

// ReviewEntry is one (reviewer, status) pair on a PR. Entries are
// deduplicated by reviewer: a submitted review supersedes a pending request
// for the same identity.
type ReviewEntry struct {
	Reviewer string
	State    ReviewState
}

// SortReviewEntries orders entries lexicographically by reviewer so that
// rendered output is reproducible regardless of API response order.
func SortReviewEntries(entries []ReviewEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Reviewer < entries[j].Reviewer
	})
}

// CountApprovals returns the number of entries with an approved state.
func CountApprovals(entries []ReviewEntry) int {
	n := 0
	for _, e := range entries {
		if e.State == ReviewStateApproved {
			n++
		}
	}
	return n
}
