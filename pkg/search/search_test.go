package search

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type recordingSearcher struct {
	last    Query
	results []Result
	err     error
}

func (r *recordingSearcher) Search(_ context.Context, q Query) ([]Result, error) {
	r.last = q
	return r.results, r.err
}

func TestToolExecuteFormatsResults(t *testing.T) {
	searcher := &recordingSearcher{results: []Result{
		{Title: "Go spec", URL: "https://go.dev/ref/spec", Content: "The Go programming language specification."},
		{Title: "Go blog", URL: "https://go.dev/blog", Content: "Articles about Go."},
	}}
	st := NewTool(searcher, Query{})

	res, err := st.Execute(context.Background(), map[string]interface{}{"query": "golang"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.Success {
		t.Fatal("expected success")
	}
	for _, want := range []string{
		"Search results for 'golang':",
		"1. **Go spec**",
		"   URL: https://go.dev/ref/spec",
		"2. **Go blog**",
		"   Content: Articles about Go....",
	} {
		if !strings.Contains(res.Output, want) {
			t.Fatalf("output missing %q:\n%s", want, res.Output)
		}
	}
	hits, ok := res.Data.([]Result)
	if !ok || len(hits) != 2 {
		t.Fatalf("Data = %#v", res.Data)
	}
}

func TestToolExecuteAppliesDefaults(t *testing.T) {
	searcher := &recordingSearcher{}
	st := NewTool(searcher, Query{MaxResults: 3, Topic: TopicNews})

	if _, err := st.Execute(context.Background(), map[string]interface{}{"query": "headlines"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if searcher.last.MaxResults != 3 || searcher.last.Topic != TopicNews || searcher.last.IncludeRawContent {
		t.Fatalf("query = %+v", searcher.last)
	}
}

func TestToolExecuteParamsOverrideDefaults(t *testing.T) {
	searcher := &recordingSearcher{}
	st := NewTool(searcher, Query{})

	_, err := st.Execute(context.Background(), map[string]interface{}{
		"query":               "rates",
		"max_results":         float64(7),
		"topic":               TopicFinance,
		"include_raw_content": true,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if searcher.last.MaxResults != 7 || searcher.last.Topic != TopicFinance || !searcher.last.IncludeRawContent {
		t.Fatalf("query = %+v", searcher.last)
	}
}

func TestToolExecuteQueryRequired(t *testing.T) {
	st := NewTool(&recordingSearcher{}, Query{})

	if _, err := st.Execute(context.Background(), nil); err == nil || !strings.Contains(err.Error(), "query is required") {
		t.Fatalf("err = %v", err)
	}
	if _, err := st.Execute(context.Background(), map[string]interface{}{"query": "   "}); err == nil || !strings.Contains(err.Error(), "query is empty") {
		t.Fatalf("err = %v", err)
	}
}

func TestToolExecuteRejectsUnknownTopic(t *testing.T) {
	st := NewTool(&recordingSearcher{}, Query{})

	_, err := st.Execute(context.Background(), map[string]interface{}{"query": "x", "topic": "sports"})
	if err == nil || !strings.Contains(err.Error(), `unknown topic "sports"`) {
		t.Fatalf("err = %v", err)
	}
}

func TestToolExecuteSearchFailureIsText(t *testing.T) {
	st := NewTool(&recordingSearcher{err: errors.New("backend down")}, Query{})

	res, err := st.Execute(context.Background(), map[string]interface{}{"query": "x"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.Success || res.Output != "Error performing search: backend down" {
		t.Fatalf("result = %+v", res)
	}
}

func TestFormatResultsTruncatesContent(t *testing.T) {
	long := strings.Repeat("a", 600)
	out := FormatResults("q", []Result{{Title: "t", URL: "u", Content: long}})

	if strings.Contains(out, long) {
		t.Fatal("content was not truncated")
	}
	if !strings.Contains(out, strings.Repeat("a", 500)+"...") {
		t.Fatal("truncated content missing ellipsis")
	}
}

func TestFormatResultsFallbacks(t *testing.T) {
	out := FormatResults("q", []Result{{}})

	for _, want := range []string{"**No title**", "URL: No URL", "Content: No content..."} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestValidTopic(t *testing.T) {
	for _, topic := range []string{TopicGeneral, TopicNews, TopicFinance} {
		if !ValidTopic(topic) {
			t.Fatalf("ValidTopic(%q) = false", topic)
		}
	}
	if ValidTopic("sports") {
		t.Fatal(`ValidTopic("sports") = true`)
	}
}
