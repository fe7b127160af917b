// Package report renders a classified PR collection as CSV or Markdown.
// Renderers are pure: they never mutate their input, and identical input
// produces byte-identical output.
package report

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/prtrack/prtrack/internal/models"
)

// Format selects the report output format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatTable    Format = "table"
)

// ParseFormat validates a format flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatMarkdown:
		return FormatMarkdown, nil
	case FormatTable:
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown format: %s (use: csv, markdown, table)", s)
	}
}

// csvHeader is the fixed CSV header row.
var csvHeader = []string{"PR Link", "Title", "CreatedDate", "LastModifiedDate", "LastCommentDate", "Age", "Reviewers"}

const timeLayout = "2006-01-02T15:04:05Z"

// RenderCSV renders the open PRs as CSV with one row per PR.
func RenderCSV(r *models.Report) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write(csvHeader); err != nil {
		return "", err
	}
	for _, pr := range r.Open {
		lastComment := "No comments"
		if pr.LastCommentAt != nil {
			lastComment = pr.LastCommentAt.UTC().Format(timeLayout)
		}
		row := []string{
			pr.URL,
			pr.Title,
			pr.CreatedAt.UTC().Format(timeLayout),
			pr.UpdatedAt.UTC().Format(timeLayout),
			lastComment,
			fmt.Sprintf("%dd %dh", pr.AgeDays, pr.AgeHours),
			ReviewerList(pr.Reviewers),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return sb.String(), w.Error()
}

// RenderMarkdown renders the full report as a Markdown document: title,
// summary sentence, the open PR table, and optional recently-closed and
// age-bucket sections.
func RenderMarkdown(r *models.Report) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Open PR Report — %s\n\n", r.Now.UTC().Format("2006-01-02"))
	fmt.Fprintf(&sb, "%d open PRs, %d with no reviewers, %d open more than 30 days.\n\n",
		r.Summary.Total, r.Summary.NoReviewers, r.Summary.Stale)

	sb.WriteString("| PR | Age | Reviewers | Ready |\n")
	sb.WriteString("|----|-----|-----------|-------|\n")
	for _, pr := range r.Open {
		reviewers := ""
		if len(pr.Reviewers) > 0 {
			reviewers = ReviewerList(pr.Reviewers)
		}
		fmt.Fprintf(&sb, "| [%s](%s) | %dd %dh | %s | %s |\n",
			escapeCell(pr.Title), pr.URL, pr.AgeDays, pr.AgeHours, escapeCell(reviewers), pr.Tier.Glyph())
	}

	if len(r.Closed) > 0 {
		sb.WriteString("\n## Recently closed\n\n")
		sb.WriteString("| PR | Closed | Approvals |\n")
		sb.WriteString("|----|--------|-----------|\n")
		for _, pr := range r.Closed {
			closed := ""
			if pr.ClosedAt != nil {
				closed = pr.ClosedAt.UTC().Format("2006-01-02")
			}
			fmt.Fprintf(&sb, "| [%s](%s) | %s | %d |\n", escapeCell(pr.Title), pr.URL, closed, pr.Approvals)
		}
	}

	if stale := r.StaleOldestFirst(); len(stale) > 0 {
		fmt.Fprintf(&sb, "\n## Open more than 30 days (oldest first)\n\n")
		for _, pr := range stale {
			fmt.Fprintf(&sb, "- %d days: [%s](%s); reviewers: %s\n",
				pr.AgeDays, escapeCell(pr.Title), pr.URL, ReviewerList(pr.Reviewers))
		}
	}

	if aging := r.AgingOldestFirst(); len(aging) > 0 {
		fmt.Fprintf(&sb, "\n## Growing old, 23-30 days (oldest first)\n\n")
		for _, pr := range aging {
			fmt.Fprintf(&sb, "- %d days: [%s](%s); reviewers: %s\n",
				pr.AgeDays, escapeCell(pr.Title), pr.URL, ReviewerList(pr.Reviewers))
		}
	}

	return sb.String()
}

// ReviewerList joins a reviewer set into "login state, login state" form,
// or "None" when the set is empty. Entries are assumed pre-sorted.
func ReviewerList(entries []models.ReviewEntry) string {
	if len(entries) == 0 {
		return "None"
	}
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = fmt.Sprintf("%s %s", e.Reviewer, e.State)
	}
	return strings.Join(parts, ", ")
}

// escapeCell keeps table syntax intact when titles contain pipes.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
