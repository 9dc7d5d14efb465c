// Package search gives research agents a web-search capability: a narrow
// Searcher interface, the internet_search tool that exposes it to the
// model, a Tavily-backed client, and an offline in-memory searcher for
// demos and tests.
package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/statecraft-ai/deepagents-go/pkg/tool"
)

// Topic verticals accepted by the search backends.
const (
	TopicGeneral = "general"
	TopicNews    = "news"
	TopicFinance = "finance"
)

// DefaultMaxResults bounds a query when neither the model nor the caller
// says otherwise.
const DefaultMaxResults = 5

const contentPreviewLimit = 500

// Query is one search request.
type Query struct {
	Text              string
	MaxResults        int
	Topic             string
	IncludeRawContent bool
}

// Result is one search hit.
type Result struct {
	Title      string
	URL        string
	Content    string
	RawContent string
}

// Searcher runs web searches. Implementations must be safe for concurrent
// use.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]Result, error)
}

// ValidTopic reports whether t names a known topic vertical.
func ValidTopic(t string) bool {
	switch t {
	case TopicGeneral, TopicNews, TopicFinance:
		return true
	}
	return false
}

var toolSchema = &tool.JSONSchema{
	Type: "object",
	Properties: map[string]interface{}{
		"query": map[string]interface{}{
			"type":        "string",
			"description": "The search query",
		},
		"max_results": map[string]interface{}{
			"type":        "integer",
			"description": "Maximum number of results to return",
		},
		"topic": map[string]interface{}{
			"type":        "string",
			"description": "Topic vertical for the search",
			"enum":        []string{TopicGeneral, TopicNews, TopicFinance},
		},
		"include_raw_content": map[string]interface{}{
			"type":        "boolean",
			"description": "Whether to include raw page content",
		},
	},
	Required: []string{"query"},
}

// Tool adapts a Searcher into the internet_search tool. Backend failures
// come back as error text so the model can rephrase and retry.
type Tool struct {
	searcher Searcher
	defaults Query
}

// NewTool wraps searcher. defaults fill in MaxResults, Topic, and
// IncludeRawContent when the model omits them.
func NewTool(searcher Searcher, defaults Query) *Tool {
	if defaults.MaxResults <= 0 {
		defaults.MaxResults = DefaultMaxResults
	}
	if defaults.Topic == "" {
		defaults.Topic = TopicGeneral
	}
	return &Tool{searcher: searcher, defaults: defaults}
}

func (t *Tool) Name() string { return "internet_search" }

func (t *Tool) Description() string {
	return "Run a web search for a given query. You can specify the number of results, the topic, and whether raw content should be included."
}

func (t *Tool) Schema() *tool.JSONSchema { return toolSchema }

func (t *Tool) Execute(ctx context.Context, params map[string]interface{}) (*tool.ToolResult, error) {
	if t == nil || t.searcher == nil {
		return nil, errors.New("searcher is nil")
	}
	text, err := queryParam(params)
	if err != nil {
		return nil, err
	}

	q := Query{
		Text:              text,
		MaxResults:        t.defaults.MaxResults,
		Topic:             t.defaults.Topic,
		IncludeRawContent: t.defaults.IncludeRawContent,
	}
	if raw, ok := params["max_results"]; ok && raw != nil {
		n, err := intValue(raw)
		if err != nil {
			return nil, fmt.Errorf("max_results must be a number: %w", err)
		}
		if n > 0 {
			q.MaxResults = n
		}
	}
	if raw, ok := params["topic"]; ok && raw != nil {
		topic, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("topic must be a string, got %T", raw)
		}
		if !ValidTopic(topic) {
			return nil, fmt.Errorf("unknown topic %q", topic)
		}
		q.Topic = topic
	}
	if raw, ok := params["include_raw_content"]; ok && raw != nil {
		flag, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("include_raw_content must be a boolean, got %T", raw)
		}
		q.IncludeRawContent = flag
	}

	results, err := t.searcher.Search(ctx, q)
	if err != nil {
		return &tool.ToolResult{
			Success: true,
			Output:  fmt.Sprintf("Error performing search: %s", err),
		}, nil
	}
	return &tool.ToolResult{
		Success: true,
		Output:  FormatResults(text, results),
		Data:    results,
	}, nil
}

// FormatResults renders hits the way research prompts expect to read them:
// a numbered list with title, URL, and a bounded content preview.
func FormatResults(query string, results []Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Search results for '%s':\n\n", query)
	for i, r := range results {
		title := r.Title
		if title == "" {
			title = "No title"
		}
		url := r.URL
		if url == "" {
			url = "No URL"
		}
		content := r.Content
		if content == "" {
			content = "No content"
		}
		if runes := []rune(content); len(runes) > contentPreviewLimit {
			content = string(runes[:contentPreviewLimit])
		}
		fmt.Fprintf(&b, "%d. **%s**\n", i+1, title)
		fmt.Fprintf(&b, "   URL: %s\n", url)
		fmt.Fprintf(&b, "   Content: %s...\n\n", content)
	}
	return b.String()
}

func queryParam(params map[string]interface{}) (string, error) {
	raw, ok := params["query"]
	if !ok || raw == nil {
		return "", errors.New("query is required")
	}
	text, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("query must be a string, got %T", raw)
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("query is empty")
	}
	return text, nil
}

func intValue(raw interface{}) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if math.Trunc(v) != v {
			return 0, fmt.Errorf("value %v is not an integer", v)
		}
		return int(v), nil
	default:
		return 0, fmt.Errorf("unsupported type %T", raw)
	}
}
