// Package confluence publishes rendered reports to a Confluence instance.
// A configured page ID selects append semantics; otherwise a new page is
// created in the configured space.
package confluence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the Confluence REST API.
type Client struct {
	BaseURL string // e.g. https://example.atlassian.net/wiki
	User    string
	Token   string
	Space   string

	HTTP *http.Client
}

// NewClient returns a Client with sane HTTP defaults.
func NewClient(baseURL, user, token, space string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		User:    user,
		Token:   token,
		Space:   space,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

type pageBody struct {
	Storage struct {
		Value          string `json:"value"`
		Representation string `json:"representation"`
	} `json:"storage"`
}

type page struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
	Space *struct {
		Key string `json:"key"`
	} `json:"space,omitempty"`
	Version *struct {
		Number int `json:"number"`
	} `json:"version,omitempty"`
	Body  *pageBody `json:"body,omitempty"`
	Links struct {
		WebUI string `json:"webui"`
		Base  string `json:"base"`
	} `json:"_links"`
}

// Publish writes the report content to Confluence and returns the page URL.
// With an existingPageID it appends to that page; otherwise it creates a new
// page titled title in the configured space.
func (c *Client) Publish(ctx context.Context, title, content, existingPageID string) (string, error) {
	if existingPageID != "" {
		return c.appendToPage(ctx, existingPageID, content)
	}
	return c.createPage(ctx, title, content)
}

func (c *Client) createPage(ctx context.Context, title, content string) (string, error) {
	p := page{Type: "page", Title: title}
	p.Space = &struct {
		Key string `json:"key"`
	}{Key: c.Space}
	p.Body = storageBody(content)

	var created page
	if err := c.do(ctx, http.MethodPost, "/rest/api/content", p, &created); err != nil {
		return "", fmt.Errorf("create page: %w", err)
	}
	return created.Links.Base + created.Links.WebUI, nil
}

func (c *Client) appendToPage(ctx context.Context, pageID, content string) (string, error) {
	var existing page
	path := fmt.Sprintf("/rest/api/content/%s?expand=body.storage,version", pageID)
	if err := c.do(ctx, http.MethodGet, path, nil, &existing); err != nil {
		return "", fmt.Errorf("fetch page %s: %w", pageID, err)
	}

	updated := page{ID: pageID, Type: "page", Title: existing.Title}
	version := 1
	if existing.Version != nil {
		version = existing.Version.Number
	}
	updated.Version = &struct {
		Number int `json:"number"`
	}{Number: version + 1}

	body := ""
	if existing.Body != nil {
		body = existing.Body.Storage.Value
	}
	updated.Body = storageBody("")
	updated.Body.Storage.Value = body + "<hr/>" + storageValue(content)

	var saved page
	if err := c.do(ctx, http.MethodPut, "/rest/api/content/"+pageID, updated, &saved); err != nil {
		return "", fmt.Errorf("update page %s: %w", pageID, err)
	}
	return saved.Links.Base + saved.Links.WebUI, nil
}

// storageValue wraps report text for Confluence storage format. Reports are
// flat text, so a preformatted block preserves their layout exactly.
func storageValue(content string) string {
	return "<ac:structured-macro ac:name=\"noformat\"><ac:plain-text-body><![CDATA[" +
		strings.ReplaceAll(content, "]]>", "]]]]><![CDATA[>") +
		"]]></ac:plain-text-body></ac:structured-macro>"
}

func storageBody(content string) *pageBody {
	b := &pageBody{}
	b.Storage.Representation = "storage"
	if content != "" {
		b.Storage.Value = storageValue(content)
	}
	return b
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.User, c.Token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("confluence: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("confluence: %s %s returned %d: %s", method, path, resp.StatusCode, string(msg))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("confluence: decode response: %w", err)
		}
	}
	return nil
}
