package tracker

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prtrack/prtrack/internal/github"
	"github.com/prtrack/prtrack/internal/output"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

// fakeClient serves canned pages and records how many were requested.
type fakeClient struct {
	openPages   [][]github.PullRecord
	closedPages [][]github.PullRecord
	listErr     error
	pagesServed int

	requested    map[int]*github.RequestedReviewers
	requestedErr error
	reviews      map[int][]github.Review
	reviewsErr   error
	lastComment  map[int]*time.Time
	commentErr   error

	mu          sync.Mutex
	enrichCalls map[int]int
}

func (f *fakeClient) ListPullRequests(_ context.Context, state string, page, perPage int) ([]github.PullRecord, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.pagesServed++

	pages := f.openPages
	if state == "closed" {
		pages = f.closedPages
	}
	if page > len(pages) {
		return nil, nil
	}
	return pages[page-1], nil
}

func (f *fakeClient) RequestedReviewers(_ context.Context, number int) (*github.RequestedReviewers, error) {
	f.countEnrich(number)
	if f.requestedErr != nil {
		return nil, f.requestedErr
	}
	if rr, ok := f.requested[number]; ok {
		return rr, nil
	}
	return &github.RequestedReviewers{}, nil
}

func (f *fakeClient) Reviews(_ context.Context, number int) ([]github.Review, error) {
	if f.reviewsErr != nil {
		return nil, f.reviewsErr
	}
	return f.reviews[number], nil
}

func (f *fakeClient) LastCommentTime(_ context.Context, number int) (*time.Time, error) {
	if f.commentErr != nil {
		return nil, f.commentErr
	}
	return f.lastComment[number], nil
}

func (f *fakeClient) countEnrich(number int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enrichCalls == nil {
		f.enrichCalls = make(map[int]int)
	}
	f.enrichCalls[number]++
}

func testUI() *output.UI {
	return &output.UI{Out: &bytes.Buffer{}, ErrOut: &bytes.Buffer{}}
}

func openRecord(number int) github.PullRecord {
	return github.PullRecord{
		Number:    number,
		Title:     "pr",
		State:     "open",
		HTMLURL:   "https://example.com/pull",
		CreatedAt: testNow.Add(-time.Hour),
		UpdatedAt: testNow,
		User:      &github.Account{Login: "author"},
	}
}

func closedRecord(number int, closedDaysAgo int) github.PullRecord {
	rec := openRecord(number)
	rec.State = "closed"
	closed := testNow.Add(-time.Duration(closedDaysAgo) * 24 * time.Hour)
	rec.ClosedAt = &closed
	return rec
}

func TestFetchOpen_AccumulatesAllPages(t *testing.T) {
	client := &fakeClient{
		openPages: [][]github.PullRecord{
			{openRecord(1), openRecord(2)},
			{openRecord(3)},
		},
	}

	prs, err := NewFetcher(client).FetchOpen(context.Background())
	require.NoError(t, err)

	require.Len(t, prs, 3)
	assert.Equal(t, "author", prs[0].Author)

	seen := map[int]bool{}
	for _, pr := range prs {
		assert.False(t, seen[pr.Number], "duplicate PR number %d", pr.Number)
		seen[pr.Number] = true
	}

	// Two data pages plus the empty terminator.
	assert.Equal(t, 3, client.pagesServed)
}

func TestFetchOpen_Empty(t *testing.T) {
	client := &fakeClient{}

	prs, err := NewFetcher(client).FetchOpen(context.Background())
	require.NoError(t, err)
	assert.Empty(t, prs)
}

func TestFetchOpen_PageErrorAbortsFetch(t *testing.T) {
	client := &fakeClient{listErr: &github.APIError{StatusCode: 502}}

	prs, err := NewFetcher(client).FetchOpen(context.Background())
	require.Error(t, err)
	assert.Nil(t, prs)

	var apiErr *github.APIError
	assert.True(t, errors.As(err, &apiErr))
}

func TestFetchClosed_RetainsWithinCutoff(t *testing.T) {
	client := &fakeClient{
		closedPages: [][]github.PullRecord{
			{closedRecord(1, 1), closedRecord(2, 3)},
		},
	}

	prs, err := NewFetcher(client).FetchClosed(context.Background(), testNow, testNow.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, prs, 2)
}

// The first item closed before the cutoff stops the whole fetch: later pages
// are never requested and later items on the same page are dropped.
func TestFetchClosed_CutoffTerminatesEarly(t *testing.T) {
	client := &fakeClient{
		closedPages: [][]github.PullRecord{
			{closedRecord(1, 2), closedRecord(2, 10), closedRecord(3, 1)},
			{closedRecord(4, 1)},
		},
	}

	prs, err := NewFetcher(client).FetchClosed(context.Background(), testNow, testNow.Add(-7*24*time.Hour))
	require.NoError(t, err)

	require.Len(t, prs, 1)
	assert.Equal(t, 1, prs[0].Number)
	assert.Equal(t, 1, client.pagesServed, "second page must not be fetched")
}

func TestFetchClosed_ZeroCutoffDefaultsToWindow(t *testing.T) {
	client := &fakeClient{
		closedPages: [][]github.PullRecord{
			{closedRecord(1, 3), closedRecord(2, 10)},
		},
	}

	prs, err := NewFetcher(client).FetchClosed(context.Background(), testNow, time.Time{})
	require.NoError(t, err)

	require.Len(t, prs, 1)
	assert.Equal(t, 1, prs[0].Number)
}

func TestFetchClosed_SkipsRecordsWithoutCloseTime(t *testing.T) {
	open := openRecord(5) // no ClosedAt
	client := &fakeClient{
		closedPages: [][]github.PullRecord{
			{open, closedRecord(6, 1)},
		},
	}

	prs, err := NewFetcher(client).FetchClosed(context.Background(), testNow, testNow.Add(-7*24*time.Hour))
	require.NoError(t, err)

	require.Len(t, prs, 1)
	assert.Equal(t, 6, prs[0].Number)
}
