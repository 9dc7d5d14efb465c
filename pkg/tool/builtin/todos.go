package toolbuiltin

import (
	"context"
	"errors"
	"fmt"

	"github.com/statecraft-ai/deepagents-go/pkg/state"
	"github.com/statecraft-ai/deepagents-go/pkg/tool"
)

const writeTodosDescription = `Use this tool to create and manage a structured task list for your current work session. This helps you track progress, organize complex tasks, and demonstrate thoroughness to the user.
It also helps the user understand the progress of the task and overall progress of their requests.

## When to Use This Tool
Use this tool proactively in these scenarios:

1. Complex multi-step tasks - When a task requires 3 or more distinct steps or actions
2. Non-trivial and complex tasks - Tasks that require careful planning or multiple operations
3. User explicitly requests todo list - When the user directly asks you to use the todo list
4. User provides multiple tasks - When users provide a list of things to be done (numbered or comma-separated)
5. After receiving new instructions - Immediately capture user requirements as todos
6. When you start working on a task - Mark it as in_progress BEFORE beginning work. Ideally you should only have one todo as in_progress at a time
7. After completing a task - Mark it as completed and add any new follow-up tasks discovered during implementation

## When NOT to Use This Tool

Skip using this tool when:
1. There is only a single, straightforward task
2. The task is trivial and tracking it provides no organizational benefit
3. The task can be completed in less than 3 trivial steps
4. The task is purely conversational or informational

NOTE that you should not use this tool if there is only one trivial task to do. In this case you are better off just doing the task directly.

## Task States and Management

1. **Task States**: Use these states to track progress:
   - pending: Task not yet started
   - in_progress: Currently working on (limit to ONE task at a time)
   - completed: Task finished successfully

2. **Task Management**:
   - Update task status in real-time as you work
   - Mark tasks complete IMMEDIATELY after finishing (don't batch completions)
   - Only have ONE task in_progress at any time
   - Complete current tasks before starting new ones
   - Remove tasks that are no longer relevant from the list entirely

3. **Task Completion Requirements**:
   - ONLY mark a task as completed when you have FULLY accomplished it
   - If you encounter errors, blockers, or cannot finish, keep the task as in_progress
   - When blocked, create a new task describing what needs to be resolved
   - Never mark a task as completed if:
     - There are unresolved issues or errors
     - Work is partial or incomplete
     - You encountered blockers that prevent completion
     - You couldn't find necessary resources or dependencies
     - Quality standards haven't been met

4. **Task Breakdown**:
   - Create specific, actionable items
   - Break complex tasks into smaller, manageable steps
   - Use clear, descriptive task names

When in doubt, use this tool. Being proactive with task management demonstrates attentiveness and ensures you complete all requirements successfully.`

var writeTodosSchema = &tool.JSONSchema{
	Type: "object",
	Properties: map[string]interface{}{
		"todos": map[string]interface{}{
			"type":        "array",
			"description": "Full todo list to set, replacing the previous one",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"content": map[string]interface{}{
						"type":        "string",
						"description": "Todo text",
					},
					"status": map[string]interface{}{
						"type":        "string",
						"description": "pending|in_progress|completed",
					},
					"id": map[string]interface{}{
						"type":        "string",
						"description": "Unique identifier for the todo",
					},
				},
				"required": []string{"content", "status", "id"},
			},
		},
	},
	Required: []string{"todos"},
}

// WriteTodosTool atomically replaces the shared todo list.
type WriteTodosTool struct {
	state *state.State
}

func NewWriteTodosTool(st *state.State) *WriteTodosTool {
	return &WriteTodosTool{state: st}
}

func (w *WriteTodosTool) Name() string { return "write_todos" }

func (w *WriteTodosTool) Description() string { return writeTodosDescription }

func (w *WriteTodosTool) Schema() *tool.JSONSchema { return writeTodosSchema }

func (w *WriteTodosTool) Execute(ctx context.Context, params map[string]interface{}) (*tool.ToolResult, error) {
	if ctx == nil {
		return nil, errors.New("context is nil")
	}
	if w == nil || w.state == nil {
		return nil, errors.New("write_todos tool is not initialised")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	todos, err := parseTodoItems(params)
	if err != nil {
		return nil, err
	}

	return &tool.ToolResult{
		Success: true,
		Output:  w.state.Todos().WriteAll(todos),
		Data: map[string]interface{}{
			"count": len(todos),
		},
	}, nil
}

func parseTodoItems(params map[string]interface{}) ([]state.Todo, error) {
	if params == nil {
		return nil, errors.New("params is nil")
	}
	raw, ok := params["todos"]
	if !ok {
		return nil, errors.New("todos is required")
	}

	var entries []map[string]interface{}
	switch v := raw.(type) {
	case []interface{}:
		entries = make([]map[string]interface{}, 0, len(v))
		for i, entry := range v {
			m, ok := entry.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("todos[%d] must be object, got %T", i, entry)
			}
			entries = append(entries, m)
		}
	case []map[string]interface{}:
		entries = v
	default:
		return nil, fmt.Errorf("todos must be array, got %T", raw)
	}

	out := make([]state.Todo, 0, len(entries))
	for i, m := range entries {
		content, err := coerceString(m["content"])
		if err != nil {
			return nil, fmt.Errorf("todos[%d].content must be string: %w", i, err)
		}
		status, err := coerceString(m["status"])
		if err != nil {
			return nil, fmt.Errorf("todos[%d].status must be string: %w", i, err)
		}
		if !state.Status(status).Valid() {
			return nil, fmt.Errorf("todos[%d].status must be one of pending, in_progress, completed: got %q", i, status)
		}
		id, err := coerceString(m["id"])
		if err != nil {
			return nil, fmt.Errorf("todos[%d].id must be string: %w", i, err)
		}
		out = append(out, state.Todo{Content: content, Status: state.Status(status), ID: id})
	}
	return out, nil
}
