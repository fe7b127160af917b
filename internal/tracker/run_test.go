package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prtrack/prtrack/internal/github"
	"github.com/prtrack/prtrack/internal/models"
)

func TestRun_FullPipeline(t *testing.T) {
	aged := openRecord(2)
	aged.CreatedAt = testNow.Add(-35 * 24 * time.Hour)

	commented := testNow.Add(-time.Hour)
	client := &fakeClient{
		openPages: [][]github.PullRecord{{openRecord(1), aged}},
		reviews: map[int][]github.Review{
			1: {review("alice", "APPROVED"), review("bob", "APPROVED")},
		},
		lastComment: map[int]*time.Time{1: &commented},
	}

	rep, err := Run(context.Background(), client, testUI(), Options{Now: testNow})
	require.NoError(t, err)

	require.Len(t, rep.Open, 2)
	assert.Equal(t, 2, rep.Summary.Total)
	assert.Equal(t, 1, rep.Summary.NoReviewers)
	assert.Equal(t, 1, rep.Summary.Stale)

	// Two approvals sort PR 1 first and make it ready.
	assert.Equal(t, 1, rep.Open[0].Number)
	assert.Equal(t, models.TierReady, rep.Open[0].Tier)
	require.NotNil(t, rep.Open[0].LastCommentAt)

	assert.Equal(t, models.BucketStale, rep.Open[1].Bucket)
	assert.Empty(t, rep.Closed)
}

func TestRun_IncludeClosed(t *testing.T) {
	client := &fakeClient{
		openPages:   [][]github.PullRecord{{openRecord(1)}},
		closedPages: [][]github.PullRecord{{closedRecord(7, 2)}},
	}

	rep, err := Run(context.Background(), client, testUI(), Options{
		Now:           testNow,
		IncludeClosed: true,
	})
	require.NoError(t, err)

	require.Len(t, rep.Closed, 1)
	assert.Equal(t, 7, rep.Closed[0].Number)
	// Closed PRs never count toward the open summary.
	assert.Equal(t, 1, rep.Summary.Total)
}

func TestRun_ListingErrorAborts(t *testing.T) {
	client := &fakeClient{listErr: &github.APIError{StatusCode: 500}}

	rep, err := Run(context.Background(), client, testUI(), Options{Now: testNow})
	require.Error(t, err)
	assert.Nil(t, rep)
}

// Enrichment failures degrade per PR; the run still succeeds.
func TestRun_EnrichmentFailureDoesNotAbort(t *testing.T) {
	client := &fakeClient{
		openPages:    [][]github.PullRecord{{openRecord(1)}},
		requestedErr: &github.APIError{StatusCode: 403},
		reviewsErr:   &github.APIError{StatusCode: 403},
		commentErr:   &github.APIError{StatusCode: 403},
	}

	rep, err := Run(context.Background(), client, testUI(), Options{Now: testNow})
	require.NoError(t, err)

	require.Len(t, rep.Open, 1)
	assert.Empty(t, rep.Open[0].Reviewers)
	assert.Equal(t, 1, rep.Summary.NoReviewers)
}
