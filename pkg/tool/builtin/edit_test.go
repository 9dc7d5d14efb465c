package toolbuiltin

import (
	"context"
	"strings"
	"testing"

	"github.com/statecraft-ai/deepagents-go/pkg/state"
)

func TestEditFileToolSingleReplacement(t *testing.T) {
	st := state.New()
	st.Files().Write("sample.txt", "first\nsecond\n")
	et := NewEditFileTool(st)

	res, err := et.Execute(context.Background(), map[string]any{
		"file_path":  "sample.txt",
		"old_string": "second",
		"new_string": "SECOND",
	})
	if err != nil {
		t.Fatalf("edit execute failed: %v", err)
	}
	if res.Output != "Successfully replaced string in 'sample.txt'" {
		t.Fatalf("unexpected edit output: %q", res.Output)
	}
	content, _ := st.Files().Get("sample.txt")
	if !strings.Contains(content, "SECOND") {
		t.Fatalf("edit did not apply: %q", content)
	}
}

func TestEditFileToolReplaceAllCoercion(t *testing.T) {
	st := state.New()
	st.Files().Write("multi.txt", "foo bar foo baz foo")
	et := NewEditFileTool(st)

	res, err := et.Execute(context.Background(), map[string]any{
		"file_path":   "multi.txt",
		"old_string":  "foo",
		"new_string":  "FOO",
		"replace_all": "true",
	})
	if err != nil {
		t.Fatalf("replace_all edit failed: %v", err)
	}
	if res.Output != "Successfully replaced 3 instance(s) of the string in 'multi.txt'" {
		t.Fatalf("unexpected replace_all output: %q", res.Output)
	}
	content, _ := st.Files().Get("multi.txt")
	if strings.Contains(content, "foo") {
		t.Fatalf("replace_all left occurrences behind: %q", content)
	}
}

func TestEditFileToolAmbiguousMatch(t *testing.T) {
	st := state.New()
	st.Files().Write("multi.txt", "foo bar foo")
	et := NewEditFileTool(st)

	res, err := et.Execute(context.Background(), map[string]any{
		"file_path":  "multi.txt",
		"old_string": "foo",
		"new_string": "FOO",
	})
	if err != nil {
		t.Fatalf("edit execute failed: %v", err)
	}
	if !strings.Contains(res.Output, "appears 2 times") {
		t.Fatalf("expected ambiguity error mentioning the count, got %q", res.Output)
	}
}

func TestEditFileToolParamValidation(t *testing.T) {
	st := state.New()
	et := NewEditFileTool(st)

	if _, err := et.Execute(context.Background(), map[string]any{
		"file_path":  "a.txt",
		"old_string": "x",
	}); err == nil {
		t.Fatal("expected error for missing new_string")
	}
	if _, err := et.Execute(context.Background(), map[string]any{
		"file_path":   "a.txt",
		"old_string":  "x",
		"new_string":  "y",
		"replace_all": "maybe",
	}); err == nil {
		t.Fatal("expected error for invalid replace_all")
	}
}
