package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"toolhost/internal/domain"
)

const (
	webTimeout      = 15 * time.Second
	fetchMaxBytes   = 100 * 1024
	userAgentString = "toolhost/0.1"
)

// WebProvider fetches pages and queries the DuckDuckGo Instant Answer API.
type WebProvider struct {
	client *http.Client
}

func NewWebProvider() *WebProvider {
	return &WebProvider{client: &http.Client{Timeout: webTimeout}}
}

func (p *WebProvider) Name() string { return "web" }

func (p *WebProvider) Tools() (map[string]domain.ToolEntry, error) {
	return map[string]domain.ToolEntry{
		"web_fetch": {
			Handler: p.fetch,
			Meta: &domain.Metadata{
				Description: "Fetch a URL over HTTP GET and return the body (truncated to 100KB).",
				Category:    "web",
				CacheTTL:    60,
				InputSchema: Schema(map[string]Param{
					"url": {Type: "string", Description: "URL to fetch (http or https)"},
				}, []string{"url"}),
			},
		},
		"web_search": {
			Handler: p.search,
			Meta: &domain.Metadata{
				Description: "Search the web for information. Returns a summary of instant-answer results.",
				Category:    "web",
				CacheTTL:    300,
				InputSchema: Schema(map[string]Param{
					"query": {Type: "string", Description: "Search query to look up on the web"},
				}, []string{"query"}),
			},
		},
	}, nil
}

func (p *WebProvider) fetch(ctx context.Context, args map[string]any) (any, error) {
	raw, err := RequireString(args, "url")
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, domain.BadArg("url", "must be an http or https URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgentString)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, fetchMaxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return map[string]any{
		"url":          u.String(),
		"status":       resp.StatusCode,
		"content_type": resp.Header.Get("Content-Type"),
		"body":         string(body),
	}, nil
}

func (p *WebProvider) search(ctx context.Context, args map[string]any) (any, error) {
	query, err := RequireString(args, "query")
	if err != nil {
		return nil, err
	}

	// DuckDuckGo Instant Answer API, no key required.
	endpoint := fmt.Sprintf("https://api.duckduckgo.com/?q=%s&format=json&no_html=1&skip_disambig=1",
		url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgentString)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		AbstractText  string `json:"AbstractText"`
		AbstractURL   string `json:"AbstractURL"`
		Answer        string `json:"Answer"`
		Definition    string `json:"Definition"`
		RelatedTopics []struct {
			Text     string `json:"Text"`
			FirstURL string `json:"FirstURL"`
		} `json:"RelatedTopics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	var sb strings.Builder
	if result.Answer != "" {
		sb.WriteString("Answer: " + result.Answer + "\n")
	}
	if result.AbstractText != "" {
		sb.WriteString(result.AbstractText + "\n")
		if result.AbstractURL != "" {
			sb.WriteString("Source: " + result.AbstractURL + "\n")
		}
	}
	if result.Definition != "" {
		sb.WriteString("Definition: " + result.Definition + "\n")
	}
	for i, topic := range result.RelatedTopics {
		if i >= 5 || topic.Text == "" {
			break
		}
		sb.WriteString(fmt.Sprintf("- %s (%s)\n", topic.Text, topic.FirstURL))
	}
	if sb.Len() == 0 {
		return "No instant answers found for: " + query, nil
	}
	return sb.String(), nil
}

var _ domain.Provider = (*WebProvider)(nil)
