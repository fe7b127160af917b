package models

import (
	"fmt"
	"time"
)

// PullRequest is a single pull request as fetched from the hosting platform.
// It is immutable within a run.
type PullRequest struct {
	Number        int
	Title         string
	URL           string
	Author        string
	State         string // "open" or "closed"
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ClosedAt      *time.Time // nil while open
	LastCommentAt *time.Time // nil when no comments, or when the lookup failed
}

// Closed reports whether the PR has a recorded close time.
func (pr *PullRequest) Closed() bool {
	return pr.ClosedAt != nil
}

// Age returns whole days and remainder hours since the PR was created,
// measured against the given instant.
func (pr *PullRequest) Age(now time.Time) (days, hours int) {
	d := now.Sub(pr.CreatedAt)
	if d < 0 {
		return 0, 0
	}
	days = int(d.Hours()) / 24
	hours = int(d.Hours()) % 24
	return days, hours
}

// AgeString formats the PR age as "3d 7h", matching the report column format.
func (pr *PullRequest) AgeString(now time.Time) string {
	days, hours := pr.Age(now)
	return fmt.Sprintf("%dd %dh", days, hours)
}
