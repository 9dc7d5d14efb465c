package toolbuiltin

import (
	"context"
	"testing"

	"github.com/statecraft-ai/deepagents-go/pkg/state"
)

func TestWriteFileTool(t *testing.T) {
	st := state.New()
	wt := NewWriteFileTool(st)

	res, err := wt.Execute(context.Background(), map[string]any{
		"file_path": "notes.md",
		"content":   "remember the milk",
	})
	if err != nil {
		t.Fatalf("write execute failed: %v", err)
	}
	if res.Output != "Updated file notes.md" {
		t.Fatalf("unexpected write output: %q", res.Output)
	}
	content, ok := st.Files().Get("notes.md")
	if !ok || content != "remember the milk" {
		t.Fatalf("state not updated: %q ok=%v", content, ok)
	}
}

func TestWriteFileToolMissingContent(t *testing.T) {
	st := state.New()
	wt := NewWriteFileTool(st)

	if _, err := wt.Execute(context.Background(), map[string]any{"file_path": "notes.md"}); err == nil {
		t.Fatal("expected error for missing content")
	}
}
