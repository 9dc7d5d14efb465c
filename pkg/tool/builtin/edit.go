package toolbuiltin

import (
	"context"
	"errors"

	"github.com/statecraft-ai/deepagents-go/pkg/state"
	"github.com/statecraft-ai/deepagents-go/pkg/tool"
)

const editFileDescription = `Performs exact string replacements in files.

Usage:
- You must use your read_file tool at least once in the conversation before editing. This tool will error if you attempt an edit without reading the file.
- When editing text from read_file tool output, ensure you preserve the exact indentation (tabs/spaces) as it appears AFTER the line number prefix. The line number prefix format is: spaces + line number + tab. Everything after that tab is the actual file content to match. Never include any part of the line number prefix in the old_string or new_string.
- ALWAYS prefer editing existing files. NEVER write new files unless explicitly required.
- Only use emojis if the user explicitly requests it. Avoid adding emojis to files unless asked.
- The edit will FAIL if old_string is not unique in the file. Either provide a larger string with more surrounding context to make it unique or use replace_all to change every instance of old_string.
- Use replace_all for replacing and renaming strings across the file. This parameter is useful if you want to rename a variable for instance.`

var editFileSchema = &tool.JSONSchema{
	Type: "object",
	Properties: map[string]interface{}{
		"file_path": map[string]interface{}{
			"type":        "string",
			"description": "Path of the file to edit",
		},
		"old_string": map[string]interface{}{
			"type":        "string",
			"description": "Exact text to replace",
		},
		"new_string": map[string]interface{}{
			"type":        "string",
			"description": "Replacement text",
		},
		"replace_all": map[string]interface{}{
			"type":        "boolean",
			"description": "Replace every occurrence instead of requiring a unique match",
		},
	},
	Required: []string{"file_path", "old_string", "new_string"},
}

// EditFileTool applies exact string replacements to workspace files.
type EditFileTool struct {
	state *state.State
}

func NewEditFileTool(st *state.State) *EditFileTool {
	return &EditFileTool{state: st}
}

func (e *EditFileTool) Name() string { return "edit_file" }

func (e *EditFileTool) Description() string { return editFileDescription }

func (e *EditFileTool) Schema() *tool.JSONSchema { return editFileSchema }

func (e *EditFileTool) Execute(ctx context.Context, params map[string]interface{}) (*tool.ToolResult, error) {
	if ctx == nil {
		return nil, errors.New("context is nil")
	}
	if e == nil || e.state == nil {
		return nil, errors.New("edit_file tool is not initialised")
	}
	path, err := stringParam(params, "file_path")
	if err != nil {
		return nil, err
	}
	oldStr, err := stringParam(params, "old_string")
	if err != nil {
		return nil, err
	}
	newStr, err := stringParam(params, "new_string")
	if err != nil {
		return nil, err
	}
	replaceAll, err := optionalBoolParam(params, "replace_all", false)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &tool.ToolResult{
		Success: true,
		Output:  e.state.Files().Edit(path, oldStr, newStr, replaceAll),
	}, nil
}
