package toolbuiltin

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/statecraft-ai/deepagents-go/pkg/state"
	"github.com/statecraft-ai/deepagents-go/pkg/tool"
)

const lsDescription = `Lists all files in the shared in-memory workspace.

Paths are returned in the order they were first written. Use this before
reading or editing to see which files already exist.`

var lsSchema = &tool.JSONSchema{
	Type:       "object",
	Properties: map[string]interface{}{},
}

// LsTool lists workspace paths from the shared run state.
type LsTool struct {
	state *state.State
}

func NewLsTool(st *state.State) *LsTool {
	return &LsTool{state: st}
}

func (l *LsTool) Name() string { return "ls" }

func (l *LsTool) Description() string { return lsDescription }

func (l *LsTool) Schema() *tool.JSONSchema { return lsSchema }

func (l *LsTool) Execute(ctx context.Context, params map[string]interface{}) (*tool.ToolResult, error) {
	if ctx == nil {
		return nil, errors.New("context is nil")
	}
	if l == nil || l.state == nil {
		return nil, errors.New("ls tool is not initialised")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	paths := l.state.Files().List()
	if paths == nil {
		paths = []string{}
	}
	out, err := json.Marshal(paths)
	if err != nil {
		return nil, err
	}
	return &tool.ToolResult{
		Success: true,
		Output:  string(out),
		Data:    paths,
	}, nil
}
