package deepagents

import (
	"context"
	"strings"
	"testing"

	"github.com/statecraft-ai/deepagents-go/pkg/agent"
	"github.com/statecraft-ai/deepagents-go/pkg/state"
	"github.com/statecraft-ai/deepagents-go/pkg/subagents"
	"github.com/statecraft-ai/deepagents-go/pkg/tool"
)

// scriptedModel replays outputs in order, serving the main loop and any
// sub-runs from the same script, and records every context it saw.
type scriptedModel struct {
	outputs []*agent.ModelOutput
	calls   int
	seen    []*agent.Context
}

func (m *scriptedModel) Generate(_ context.Context, c *agent.Context) (*agent.ModelOutput, error) {
	m.seen = append(m.seen, c)
	m.calls++
	if m.calls <= len(m.outputs) {
		return m.outputs[m.calls-1], nil
	}
	return &agent.ModelOutput{Content: "done"}, nil
}

type echoTool struct{ name string }

func (e *echoTool) Name() string             { return e.name }
func (e *echoTool) Description() string      { return "echoes its input" }
func (e *echoTool) Schema() *tool.JSONSchema { return nil }

func (e *echoTool) Execute(_ context.Context, params map[string]interface{}) (*tool.ToolResult, error) {
	text, _ := params["text"].(string)
	return &tool.ToolResult{Success: true, Output: text}, nil
}

func toolNames(c *agent.Context) []string {
	names := make([]string, 0, len(c.Tools))
	for _, t := range c.Tools {
		names = append(names, t.Name())
	}
	return names
}

func contains(names []string, want string) bool {
	for _, name := range names {
		if name == want {
			return true
		}
	}
	return false
}

func TestNewDefaults(t *testing.T) {
	ag, err := New(context.Background(), Config{Model: &scriptedModel{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ag.Close()

	names := ag.ToolNames()
	for _, want := range []string{"ls", "read_file", "write_file", "edit_file", "write_todos", "task"} {
		if !contains(names, want) {
			t.Fatalf("ToolNames missing %q, got %v", want, names)
		}
	}
	if names[len(names)-1] != "task" {
		t.Fatalf("expected task registered last, got %v", names)
	}

	types := ag.SubagentTypes()
	if len(types) != 1 || types[0] != subagents.GeneralPurposeName {
		t.Fatalf("SubagentTypes = %v", types)
	}
	if ag.State() == nil {
		t.Fatal("State is nil")
	}
	if !strings.HasPrefix(ag.ID(), "agent-") {
		t.Fatalf("ID = %q", ag.ID())
	}
}

func TestNewKeepsCallerAgentID(t *testing.T) {
	ag, err := New(context.Background(), Config{Model: &scriptedModel{}, AgentID: "agent-fixed01"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ag.Close()

	if ag.ID() != "agent-fixed01" {
		t.Fatalf("ID = %q, want agent-fixed01", ag.ID())
	}
}

func TestNewRegistersCustomTools(t *testing.T) {
	ag, err := New(context.Background(), Config{
		Model: &scriptedModel{},
		Tools: []tool.Tool{&echoTool{name: "echo"}},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ag.Close()

	if !contains(ag.ToolNames(), "echo") {
		t.Fatalf("ToolNames missing echo: %v", ag.ToolNames())
	}
}

func TestNewRejectsDuplicateTool(t *testing.T) {
	_, err := New(context.Background(), Config{
		Model: &scriptedModel{},
		Tools: []tool.Tool{&echoTool{name: "ls"}},
	})
	if err == nil || !strings.Contains(err.Error(), "already registered") {
		t.Fatalf("expected duplicate registration error, got %v", err)
	}
}

func TestNewRejectsNilTool(t *testing.T) {
	_, err := New(context.Background(), Config{
		Model: &scriptedModel{},
		Tools: []tool.Tool{nil},
	})
	if err == nil || !strings.Contains(err.Error(), "nil tool") {
		t.Fatalf("expected nil tool error, got %v", err)
	}
}

func TestNewSeedsInitialFiles(t *testing.T) {
	st := state.NewWithFiles(map[string]string{"keep.md": "kept"})
	ag, err := New(context.Background(), Config{
		Model:        &scriptedModel{},
		State:        st,
		InitialFiles: map[string]string{"seed.md": "seeded"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ag.Close()

	if ag.State() != st {
		t.Fatal("State was replaced instead of reused")
	}
	snap := ag.Snapshot()
	if snap.Files["keep.md"] != "kept" || snap.Files["seed.md"] != "seeded" {
		t.Fatalf("Snapshot files = %v", snap.Files)
	}
}

func TestNewDefaultModelRequiresKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("ANTHROPIC_AUTH_TOKEN", "")

	_, err := New(context.Background(), Config{})
	if err == nil || !strings.Contains(err.Error(), "api key required") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}

func TestRunDelegationSharesState(t *testing.T) {
	mdl := &scriptedModel{outputs: []*agent.ModelOutput{
		{ToolCalls: []agent.ToolCall{{ID: "call-0", Name: "task", Input: map[string]interface{}{
			"description":   "collect findings into findings.md",
			"subagent_type": "research-agent",
		}}}},
		{ToolCalls: []agent.ToolCall{{ID: "call-1", Name: "write_file", Input: map[string]interface{}{
			"file_path": "findings.md",
			"content":   "Grounded findings.",
		}}}},
		{Content: "wrote findings"},
		{Content: "final answer"},
	}}

	ag, err := New(context.Background(), Config{
		Model:        mdl,
		Instructions: "Coordinate the research.",
		Subagents: []subagents.Definition{{
			Name:        "research-agent",
			Description: "Digs into a question and records findings.",
			Prompt:      "You are a research specialist.",
		}},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ag.Close()

	res, err := ag.Run(context.Background(), "research quantum error correction")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Output != "final answer" {
		t.Fatalf("Output = %q", res.Output)
	}

	if got, ok := ag.State().Files().Get("findings.md"); !ok || got != "Grounded findings." {
		t.Fatalf("findings.md = %q, found %v", got, ok)
	}

	var taskMsg *agent.Message
	for i := range res.Messages {
		if res.Messages[i].Role == agent.RoleTool && res.Messages[i].ToolName == "task" {
			taskMsg = &res.Messages[i]
		}
	}
	if taskMsg == nil {
		t.Fatal("no task tool message in conversation")
	}
	if !strings.Contains(taskMsg.Content, "wrote findings") {
		t.Fatalf("task result = %q", taskMsg.Content)
	}

	if len(mdl.seen) != 4 {
		t.Fatalf("model calls = %d, want 4", len(mdl.seen))
	}
	if !contains(toolNames(mdl.seen[0]), "task") {
		t.Fatal("main agent was not offered the task tool")
	}
	if contains(toolNames(mdl.seen[1]), "task") {
		t.Fatal("sub-agent must not see the task tool")
	}
	if !strings.Contains(mdl.seen[1].System, "You are a research specialist.") {
		t.Fatalf("sub-agent prompt = %q", mdl.seen[1].System)
	}
}

func TestRunStateCarriesAcrossRuns(t *testing.T) {
	mdl := &scriptedModel{outputs: []*agent.ModelOutput{
		{ToolCalls: []agent.ToolCall{{ID: "call-0", Name: "write_file", Input: map[string]interface{}{
			"file_path": "draft.md",
			"content":   "first pass",
		}}}},
		{Content: "saved the draft"},
		{Content: "second turn"},
	}}

	ag, err := New(context.Background(), Config{Model: mdl})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ag.Close()

	if _, err := ag.Run(context.Background(), "write a draft"); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if _, err := ag.Run(context.Background(), "what files exist?"); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	last := mdl.seen[len(mdl.seen)-1]
	if !strings.Contains(last.System, "draft.md") {
		t.Fatal("second run did not see draft.md in its instructions")
	}
}
