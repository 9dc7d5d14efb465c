package toolbuiltin

import (
	"context"
	"errors"

	"github.com/statecraft-ai/deepagents-go/pkg/state"
	"github.com/statecraft-ai/deepagents-go/pkg/tool"
)

const readFileDescription = `Reads a file from the local filesystem. You can access any file directly by using this tool.
Assume this tool is able to read all files on the machine. If the User provides a path to a file assume that path is valid. It is okay to read a file that does not exist; an error will be returned.

Usage:
- The file_path parameter must be an absolute path, not a relative path
- By default, it reads up to 2000 lines starting from the beginning of the file
- You can optionally specify a line offset and limit (especially handy for long files), but it's recommended to read the whole file by not providing these parameters
- Any lines longer than 2000 characters will be truncated
- Results are returned using cat -n format, with line numbers starting at 1
- You have the capability to call multiple tools in a single response. It is always better to speculatively read multiple files as a batch that are potentially useful.
- If you read a file that exists but has empty contents you will receive a system reminder warning in place of file contents.`

var readFileSchema = &tool.JSONSchema{
	Type: "object",
	Properties: map[string]interface{}{
		"file_path": map[string]interface{}{
			"type":        "string",
			"description": "Path of the file to read",
		},
		"offset": map[string]interface{}{
			"type":        "number",
			"description": "Line number to start reading from. Only provide if the file is too large to read at once",
		},
		"limit": map[string]interface{}{
			"type":        "number",
			"description": "Maximum number of lines to read. Only provide if the file is too large to read at once",
		},
	},
	Required: []string{"file_path"},
}

// ReadFileTool pages through workspace files in cat -n format.
type ReadFileTool struct {
	state *state.State
}

func NewReadFileTool(st *state.State) *ReadFileTool {
	return &ReadFileTool{state: st}
}

func (r *ReadFileTool) Name() string { return "read_file" }

func (r *ReadFileTool) Description() string { return readFileDescription }

func (r *ReadFileTool) Schema() *tool.JSONSchema { return readFileSchema }

func (r *ReadFileTool) Execute(ctx context.Context, params map[string]interface{}) (*tool.ToolResult, error) {
	if ctx == nil {
		return nil, errors.New("context is nil")
	}
	if r == nil || r.state == nil {
		return nil, errors.New("read_file tool is not initialised")
	}
	path, err := stringParam(params, "file_path")
	if err != nil {
		return nil, err
	}
	offset, err := optionalIntParam(params, "offset", 0)
	if err != nil {
		return nil, err
	}
	limit, err := optionalIntParam(params, "limit", state.DefaultReadLimit)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &tool.ToolResult{
		Success: true,
		Output:  r.state.Files().Read(path, offset, limit),
	}, nil
}
