package toolbuiltin

import (
	"context"
	"testing"

	"github.com/statecraft-ai/deepagents-go/pkg/state"
)

func TestLsToolEmpty(t *testing.T) {
	st := state.New()
	lt := NewLsTool(st)

	res, err := lt.Execute(context.Background(), map[string]any{})
	if err != nil {
		t.Fatalf("ls execute failed: %v", err)
	}
	if res.Output != "[]" {
		t.Fatalf("expected empty JSON array, got %q", res.Output)
	}
}

func TestLsToolOrder(t *testing.T) {
	st := state.New()
	st.Files().Write("b.txt", "2")
	st.Files().Write("a.txt", "1")
	st.Files().Write("b.txt", "3")
	lt := NewLsTool(st)

	res, err := lt.Execute(context.Background(), map[string]any{})
	if err != nil {
		t.Fatalf("ls execute failed: %v", err)
	}
	if res.Output != `["b.txt","a.txt"]` {
		t.Fatalf("expected first-write order, got %q", res.Output)
	}
}
