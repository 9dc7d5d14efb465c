package toolbuiltin

import (
	"github.com/statecraft-ai/deepagents-go/pkg/state"
	"github.com/statecraft-ai/deepagents-go/pkg/tool"
)

// StateTools returns the file and todo tools bound to st, in the order they
// are declared to the model.
func StateTools(st *state.State) []tool.Tool {
	return []tool.Tool{
		NewWriteTodosTool(st),
		NewWriteFileTool(st),
		NewReadFileTool(st),
		NewLsTool(st),
		NewEditFileTool(st),
	}
}
