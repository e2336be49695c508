package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/agentforge/agentforge/internal/domain"
)

// WebSearchTool searches the internet through the DuckDuckGo Instant Answer
// API. Network failures and empty result sets degrade to a descriptive string
// instead of an error so the model can react to them.
type WebSearchTool struct {
	client  *http.Client
	baseURL string
}

// NewWebSearchTool creates the web_search tool.
func NewWebSearchTool() *WebSearchTool {
	return &WebSearchTool{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: "https://api.duckduckgo.com",
	}
}

func (t *WebSearchTool) Definition() domain.ToolDefinition {
	return domain.ToolDefinition{
		Name:        "web_search",
		Description: "Search the internet for current information, news, facts, or any topic. Use this when you need up-to-date information that may not be in your knowledge base.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {
					"type": "string",
					"description": "The search query"
				},
				"max_results": {
					"type": "integer",
					"description": "Maximum number of results (default: 5)"
				}
			},
			"required": ["query"]
		}`),
	}
}

type webSearchArgs struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type instantAnswerResponse struct {
	Heading       string `json:"Heading"`
	AbstractText  string `json:"AbstractText"`
	AbstractURL   string `json:"AbstractURL"`
	RelatedTopics []struct {
		FirstURL string `json:"FirstURL"`
		Text     string `json:"Text"`
	} `json:"RelatedTopics"`
}

func (t *WebSearchTool) Invoke(ctx context.Context, args json.RawMessage, inv Invocation) Result {
	var a webSearchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return Errorf("web search failed: %v", err)
	}
	if a.MaxResults <= 0 {
		a.MaxResults = 5
	}

	return Result{Data: map[string]any{
		"results": t.search(ctx, a.Query, a.MaxResults),
	}}
}

func (t *WebSearchTool) search(ctx context.Context, query string, maxResults int) string {
	searchURL := fmt.Sprintf("%s/?q=%s&format=json&no_html=1", t.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return fmt.Sprintf("Web search failed: %v", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; AgentForgeBot/1.0)")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Sprintf("Web search failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("Web search failed: search backend returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("Web search failed: %v", err)
	}

	var parsed instantAnswerResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Sprintf("Web search failed: %v", err)
	}

	type hit struct {
		title, snippet, link string
	}
	var hits []hit
	if parsed.AbstractText != "" && parsed.AbstractURL != "" {
		hits = append(hits, hit{title: parsed.Heading, snippet: parsed.AbstractText, link: parsed.AbstractURL})
	}
	for _, topic := range parsed.RelatedTopics {
		if len(hits) >= maxResults {
			break
		}
		if topic.FirstURL == "" || topic.Text == "" {
			continue
		}
		title := truncateTitle(topic.Text, 100)
		hits = append(hits, hit{title: title, snippet: topic.Text, link: topic.FirstURL})
	}

	if len(hits) == 0 {
		return fmt.Sprintf("No results found for: %s", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Web search results for: %s\n", query)
	for i, h := range hits {
		fmt.Fprintf(&b, "\n%d. %s\n   %s\n   Source: %s\n", i+1, h.title, h.snippet, h.link)
	}
	return b.String()
}

// truncateTitle caps a title at max bytes without splitting a rune.
func truncateTitle(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
