package toolbuiltin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/statecraft-ai/deepagents-go/pkg/tool"
)

const taskDescriptionPrefix = `Launch a new agent to handle complex, multi-step tasks autonomously.

Available agent types and the tools they have access to:
`

const taskDescriptionSuffix = `
When using the Task tool, you must specify a subagent_type parameter to select which agent type to use.

Usage notes:
1. Launch multiple agents concurrently whenever possible, to maximize performance
2. When the agent is done, it will return a single message back to you
3. Each agent invocation is stateless
4. The agent's outputs should generally be trusted
5. Clearly tell the agent whether you expect it to create content, perform analysis, or just do research`

var taskSchema = &tool.JSONSchema{
	Type: "object",
	Properties: map[string]interface{}{
		"description": map[string]interface{}{
			"type":        "string",
			"description": "The task for the sub-agent to perform",
		},
		"subagent_type": map[string]interface{}{
			"type":        "string",
			"description": "The type of sub-agent to launch",
		},
	},
	Required: []string{"description", "subagent_type"},
}

// SubagentSummary names one registered sub-agent type for the task tool
// description shown to the model.
type SubagentSummary struct {
	Name        string
	Description string
}

// Dispatcher resolves and runs named sub-agents on behalf of the task tool.
type Dispatcher interface {
	// Summaries lists the registered sub-agent types in registration order.
	Summaries() []SubagentSummary

	// Dispatch runs the named sub-agent with description as its input and
	// returns the sub-agent's final text output.
	Dispatch(ctx context.Context, subagentType, description string) (string, error)
}

// TaskTool delegates work to a named sub-agent running against the same
// shared state as the caller. Unknown types and sub-run failures come back
// as error text so the outer run keeps going.
type TaskTool struct {
	dispatcher Dispatcher
}

func NewTaskTool(d Dispatcher) *TaskTool {
	return &TaskTool{dispatcher: d}
}

func (t *TaskTool) Name() string { return "task" }

func (t *TaskTool) Description() string {
	var b strings.Builder
	b.WriteString(taskDescriptionPrefix)
	if t != nil && t.dispatcher != nil {
		for _, s := range t.dispatcher.Summaries() {
			fmt.Fprintf(&b, "- %s: %s\n", s.Name, s.Description)
		}
	}
	b.WriteString(taskDescriptionSuffix)
	return b.String()
}

func (t *TaskTool) Schema() *tool.JSONSchema { return taskSchema }

func (t *TaskTool) Execute(ctx context.Context, params map[string]interface{}) (*tool.ToolResult, error) {
	if ctx == nil {
		return nil, errors.New("context is nil")
	}
	if t == nil || t.dispatcher == nil {
		return nil, errors.New("task tool is not initialised")
	}
	description, err := stringParam(params, "description")
	if err != nil {
		return nil, err
	}
	subagentType, err := stringParam(params, "subagent_type")
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summaries := t.dispatcher.Summaries()
	names := make([]string, 0, len(summaries))
	registered := false
	for _, s := range summaries {
		names = append(names, "'`"+s.Name+"`'")
		if s.Name == subagentType {
			registered = true
		}
	}
	if !registered {
		return &tool.ToolResult{
			Success: true,
			Output:  fmt.Sprintf("Error: invoked agent of type %s, the only allowed types are [%s]", subagentType, strings.Join(names, ", ")),
		}, nil
	}

	output, err := t.dispatcher.Dispatch(ctx, subagentType, description)
	if err != nil {
		return &tool.ToolResult{
			Success: true,
			Output:  fmt.Sprintf("Error running sub-agent: %s", err),
		}, nil
	}
	return &tool.ToolResult{
		Success: true,
		Output:  output,
		Data: map[string]interface{}{
			"subagent_type": subagentType,
		},
	}, nil
}
