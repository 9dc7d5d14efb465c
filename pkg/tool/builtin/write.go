package toolbuiltin

import (
	"context"
	"errors"

	"github.com/statecraft-ai/deepagents-go/pkg/state"
	"github.com/statecraft-ai/deepagents-go/pkg/tool"
)

const writeFileDescription = `Writes content to a file in the shared workspace.

Usage:
- Creates the file when it does not exist and replaces the full contents when it does
- Writes are whole-file; to change part of an existing file use edit_file instead
- ALWAYS prefer editing existing files. NEVER write new files unless explicitly required.`

var writeFileSchema = &tool.JSONSchema{
	Type: "object",
	Properties: map[string]interface{}{
		"file_path": map[string]interface{}{
			"type":        "string",
			"description": "Path of the file to write",
		},
		"content": map[string]interface{}{
			"type":        "string",
			"description": "Full content to store at the path",
		},
	},
	Required: []string{"file_path", "content"},
}

// WriteFileTool creates or replaces workspace files.
type WriteFileTool struct {
	state *state.State
}

func NewWriteFileTool(st *state.State) *WriteFileTool {
	return &WriteFileTool{state: st}
}

func (w *WriteFileTool) Name() string { return "write_file" }

func (w *WriteFileTool) Description() string { return writeFileDescription }

func (w *WriteFileTool) Schema() *tool.JSONSchema { return writeFileSchema }

func (w *WriteFileTool) Execute(ctx context.Context, params map[string]interface{}) (*tool.ToolResult, error) {
	if ctx == nil {
		return nil, errors.New("context is nil")
	}
	if w == nil || w.state == nil {
		return nil, errors.New("write_file tool is not initialised")
	}
	path, err := stringParam(params, "file_path")
	if err != nil {
		return nil, err
	}
	content, err := stringParam(params, "content")
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &tool.ToolResult{
		Success: true,
		Output:  w.state.Files().Write(path, content),
	}, nil
}
