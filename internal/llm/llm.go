package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Client wraps the Anthropic API for report summarization.
type Client struct {
	api   *anthropic.Client
	model anthropic.Model
}

// NewClient creates an LLM client with the given API key and model.
func NewClient(apiKey, model string) *Client {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	return &Client{
		api:   &client,
		model: anthropic.Model(model),
	}
}

// buildSummaryPrompt constructs the system and user prompts for report
// summarization.
func buildSummaryPrompt(reportMarkdown string) (system string, user string) {
	system = `You summarize pull-request review reports for engineering leads. Given a Markdown PR report, write a short executive summary (3-6 sentences, plain prose, no markdown headings) that covers:
- overall review load and how many PRs are waiting with no reviewers
- which PRs are closest to merge-ready and which are blocked
- anything alarming about PR age (PRs open more than 30 days deserve a mention by title)

Rules:
- Mention PRs by title, never by URL
- Do not repeat the raw counts verbatim if you can characterize them instead
- Do not invent PRs or reviewers that are not in the report
- Return plain text only, no markdown fencing`

	var sb strings.Builder
	sb.WriteString("Summarize this PR report:\n\n")
	sb.WriteString(reportMarkdown)
	user = sb.String()
	return
}

// SummarizeReport sends a rendered Markdown report to the LLM and returns a
// short executive summary.
func (c *Client) SummarizeReport(ctx context.Context, reportMarkdown string) (string, error) {
	systemPrompt, userPrompt := buildSummaryPrompt(reportMarkdown)

	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return "", fmt.Errorf("no text content in API response")
	}

	return strings.TrimSpace(text), nil
}
