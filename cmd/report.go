package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/prtrack/prtrack/internal/confluence"
	"github.com/prtrack/prtrack/internal/llm"
	"github.com/prtrack/prtrack/internal/models"
	"github.com/prtrack/prtrack/internal/output"
	"github.com/prtrack/prtrack/internal/report"
	"github.com/prtrack/prtrack/internal/tracker"
)

var (
	reportFormat    string
	reportPublish   bool
	reportClosed    bool
	reportSinceDays int
	reportAISummary bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the PR review report",
	Long: `Fetch all open pull requests, enrich them with reviewer and comment
data, and render a report.

The report body goes to stdout (or to Confluence with --publish); summary
counts and warnings go to stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return reportRun(cmd.Context())
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportFormat, "format", "csv", "Output format: csv, markdown, table")
	reportCmd.Flags().BoolVar(&reportPublish, "publish", false, "Publish the report to Confluence instead of stdout")
	reportCmd.Flags().BoolVar(&reportClosed, "closed", false, "Include PRs closed within the last --since-days days")
	reportCmd.Flags().IntVar(&reportSinceDays, "since-days", 7, "Closed-PR lookback window in days")
	reportCmd.Flags().BoolVar(&reportAISummary, "ai-summary", false, "Prepend an AI-generated executive summary (Markdown only)")
	rootCmd.AddCommand(reportCmd)
}

func reportRun(ctx context.Context) error {
	format, err := report.ParseFormat(reportFormat)
	if err != nil {
		return err
	}
	if reportPublish && format == report.FormatTable {
		return fmt.Errorf("--publish requires --format csv or markdown")
	}

	client, err := getGitHubClient()
	if err != nil {
		return err
	}

	rep, err := tracker.Run(ctx, client, ui, tracker.Options{
		IncludeClosed: reportClosed,
		ClosedWindow:  time.Duration(reportSinceDays) * 24 * time.Hour,
		Workers:       viper.GetInt("report.workers"),
	})
	if err != nil {
		return err
	}

	ui.Info("SUMMARY: %d total PRs, %d no reviewers, %d open >30 days",
		rep.Summary.Total, rep.Summary.NoReviewers, rep.Summary.Stale)

	var body string
	switch format {
	case report.FormatCSV:
		body, err = report.RenderCSV(rep)
		if err != nil {
			return fmt.Errorf("render CSV: %w", err)
		}
	case report.FormatMarkdown:
		body = report.RenderMarkdown(rep)
		if reportAISummary {
			body = withAISummary(ctx, body)
		}
	case report.FormatTable:
		return renderTable(rep)
	}

	if reportPublish {
		return publishReport(ctx, rep, body)
	}

	fmt.Fprint(ui.Out, body)
	return nil
}

// renderTable prints the open PRs as a colored terminal table.
func renderTable(rep *models.Report) error {
	table := ui.Table([]string{"PR", "Title", "Age", "Approvals", "Tier", "Reviewers"})
	for _, pr := range rep.Open {
		table.Append([]string{
			output.Cyan(fmt.Sprintf("#%d", pr.Number)),
			pr.Title,
			output.AgeColor(fmt.Sprintf("%dd %dh", pr.AgeDays, pr.AgeHours), pr.Bucket),
			fmt.Sprintf("%d", pr.Approvals),
			output.TierColor(pr.Tier),
			report.ReviewerList(pr.Reviewers),
		})
	}
	return table.Render()
}

func publishReport(ctx context.Context, rep *models.Report, body string) error {
	baseURL := viper.GetString("confluence.base_url")
	if baseURL == "" {
		return fmt.Errorf("confluence.base_url must be configured to publish")
	}

	pub := confluence.NewClient(
		baseURL,
		viper.GetString("confluence.user"),
		viper.GetString("confluence.token"),
		viper.GetString("confluence.space"),
	)

	title := fmt.Sprintf("Open PR Report %s", rep.Now.UTC().Format("2006-01-02"))
	url, err := pub.Publish(ctx, title, body, viper.GetString("confluence.page_id"))
	if err != nil {
		return fmt.Errorf("publish report: %w", err)
	}

	ui.Success("published report: %s", url)
	return nil
}

// withAISummary prepends an LLM summary to the Markdown body. Best-effort:
// a failed API call leaves the report untouched.
func withAISummary(ctx context.Context, body string) string {
	c := llm.NewClient(viper.GetString("anthropic.api_key"), viper.GetString("anthropic.model"))
	summary, err := c.SummarizeReport(ctx, body)
	if err != nil {
		ui.Warning("AI summary failed: %v", err)
		return body
	}
	return fmt.Sprintf("> %s\n\n%s", summary, body)
}
