package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewTavilyRequiresKey(t *testing.T) {
	if _, err := NewTavily("  ", ""); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestTavilySearch(t *testing.T) {
	var captured map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"title":"T1","url":"https://one","content":"C1","raw_content":"R1"}]}`))
	}))
	defer srv.Close()

	client, err := NewTavily("test-key", srv.URL)
	if err != nil {
		t.Fatalf("NewTavily: %v", err)
	}

	hits, err := client.Search(context.Background(), Query{
		Text:              "golang",
		MaxResults:        2,
		Topic:             TopicNews,
		IncludeRawContent: true,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if captured["query"] != "golang" {
		t.Errorf("query = %v", captured["query"])
	}
	if captured["max_results"] != float64(2) {
		t.Errorf("max_results = %v", captured["max_results"])
	}
	if captured["topic"] != TopicNews {
		t.Errorf("topic = %v", captured["topic"])
	}
	if captured["include_raw_content"] != true {
		t.Errorf("include_raw_content = %v", captured["include_raw_content"])
	}

	if len(hits) != 1 {
		t.Fatalf("len(hits) = %d", len(hits))
	}
	want := Result{Title: "T1", URL: "https://one", Content: "C1", RawContent: "R1"}
	if hits[0] != want {
		t.Fatalf("hits[0] = %+v", hits[0])
	}
}

func TestTavilySearchDefaults(t *testing.T) {
	var captured map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	client, err := NewTavily("test-key", srv.URL)
	if err != nil {
		t.Fatalf("NewTavily: %v", err)
	}
	if _, err := client.Search(context.Background(), Query{Text: "x"}); err != nil {
		t.Fatalf("Search: %v", err)
	}

	if captured["max_results"] != float64(DefaultMaxResults) {
		t.Errorf("max_results = %v", captured["max_results"])
	}
	if captured["topic"] != TopicGeneral {
		t.Errorf("topic = %v", captured["topic"])
	}
}

func TestTavilySearchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, err := NewTavily("test-key", srv.URL)
	if err != nil {
		t.Fatalf("NewTavily: %v", err)
	}

	_, err = client.Search(context.Background(), Query{Text: "x"})
	if err == nil || !strings.Contains(err.Error(), "tavily returned 429") || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("err = %v", err)
	}
}
