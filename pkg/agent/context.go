package agent

import (
	"context"

	"github.com/statecraft-ai/deepagents-go/pkg/tool"
)

// Conversation roles understood by the model bindings.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Model produces the next assistant turn for the conversation.
type Model interface {
	Generate(ctx context.Context, c *Context) (*ModelOutput, error)
}

// ToolCall is a discrete tool invocation requested by the model.
type ToolCall struct {
	ID    string
	Name  string
	Input map[string]interface{}
}

// ModelOutput is the result of one Generate call. A non-empty ToolCalls
// slice keeps the loop going; an empty one ends the run with Content as the
// final answer.
type ModelOutput struct {
	Content   string
	ToolCalls []ToolCall
}

// Message is one turn of the conversation.
type Message struct {
	Role    string
	Content string

	// ToolCalls is set on assistant turns that requested tools.
	ToolCalls []ToolCall

	// ToolID and ToolName are set on tool turns and echo the originating
	// call so bindings can pair results with requests.
	ToolID   string
	ToolName string
}

// Context carries everything a Model needs for one Generate call.
type Context struct {
	System   string
	Messages []Message
	Tools    []tool.Tool
}
