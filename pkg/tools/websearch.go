package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const defaultSearchBaseURL = "https://api.duckduckgo.com"

// WebSearch queries the DuckDuckGo Instant Answer API. It needs no API key.
type WebSearch struct {
	baseURL string
	client  *http.Client
}

// NewWebSearch creates the web search tool. baseURL is optional and exists
// for tests.
func NewWebSearch(baseURL string) *WebSearch {
	if baseURL == "" {
		baseURL = defaultSearchBaseURL
	}
	return &WebSearch{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

func (s *WebSearch) Name() string { return "web_search" }

func (s *WebSearch) Description() string {
	return "Searches the web for information on a given query."
}

func (s *WebSearch) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {
				"type": "string",
				"description": "Search query"
			},
			"num_results": {
				"type": "integer",
				"description": "Number of search results to return (default: 3)"
			}
		},
		"required": ["query"]
	}`)
}

type ddgResponse struct {
	Heading       string     `json:"Heading"`
	AbstractText  string     `json:"AbstractText"`
	AbstractURL   string     `json:"AbstractURL"`
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
}

type ddgTopic struct {
	Text     string     `json:"Text"`
	FirstURL string     `json:"FirstURL"`
	Topics   []ddgTopic `json:"Topics"`
}

// Run searches for args["query"] and returns up to num_results results.
func (s *WebSearch) Run(ctx context.Context, args map[string]string) (map[string]any, error) {
	query := strings.TrimSpace(args["query"])
	if query == "" {
		return nil, fmt.Errorf("missing required parameter: query")
	}

	numResults := 3
	if raw := args["num_results"]; raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid num_results: %s", raw)
		}
		numResults = n
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("no_html", "1")
	q.Set("skip_disambig", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var ddg ddgResponse
	if err := json.NewDecoder(resp.Body).Decode(&ddg); err != nil {
		return nil, fmt.Errorf("search response malformed: %w", err)
	}

	results := make([]map[string]any, 0, numResults)
	if ddg.AbstractText != "" {
		results = append(results, map[string]any{
			"title":   ddg.Heading,
			"url":     ddg.AbstractURL,
			"snippet": ddg.AbstractText,
		})
	}
	for _, topic := range flattenTopics(ddg.RelatedTopics) {
		if len(results) >= numResults {
			break
		}
		if topic.Text == "" {
			continue
		}
		results = append(results, map[string]any{
			"title":   topic.Text,
			"url":     topic.FirstURL,
			"snippet": topic.Text,
		})
	}

	return map[string]any{
		"success":     true,
		"query":       query,
		"num_results": len(results),
		"results":     results,
	}, nil
}

// flattenTopics unnests DuckDuckGo category groups into a flat topic list.
func flattenTopics(topics []ddgTopic) []ddgTopic {
	var out []ddgTopic
	for _, t := range topics {
		if len(t.Topics) > 0 {
			out = append(out, flattenTopics(t.Topics)...)
			continue
		}
		out = append(out, t)
	}
	return out
}
