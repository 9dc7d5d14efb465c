package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	tavilyEndpoint = "https://api.tavily.com/search"
	tavilyTimeout  = 30 * time.Second
)

// Tavily is a Searcher backed by the Tavily search API.
type Tavily struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// NewTavily builds a client for the given API key. endpoint overrides the
// public API URL; pass "" for the default.
func NewTavily(apiKey, endpoint string) (*Tavily, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("search: tavily api key is empty")
	}
	if endpoint == "" {
		endpoint = tavilyEndpoint
	}
	return &Tavily{
		apiKey:   apiKey,
		endpoint: endpoint,
		client:   &http.Client{Timeout: tavilyTimeout},
	}, nil
}

func (t *Tavily) Search(ctx context.Context, q Query) ([]Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	maxResults := q.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	topic := q.Topic
	if topic == "" {
		topic = TopicGeneral
	}

	payload, err := json.Marshal(map[string]interface{}{
		"query":               q.Text,
		"max_results":         maxResults,
		"topic":               topic,
		"include_raw_content": q.IncludeRawContent,
	})
	if err != nil {
		return nil, fmt.Errorf("search: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("search: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: tavily request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("search: tavily returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded struct {
		Results []struct {
			Title      string `json:"title"`
			URL        string `json:"url"`
			Content    string `json:"content"`
			RawContent string `json:"raw_content"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("search: decode response: %w", err)
	}

	results := make([]Result, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		results = append(results, Result{
			Title:      r.Title,
			URL:        r.URL,
			Content:    r.Content,
			RawContent: r.RawContent,
		})
	}
	return results, nil
}
