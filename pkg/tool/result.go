package tool

// ToolResult captures the outcome of a tool invocation. Output carries the
// text the model reads. Domain errors (file not found, ambiguous edit,
// unknown sub-agent type) travel inside Output with Success left true,
// because for the consuming model loop a readable error string IS a
// successful tool call. Error is populated only for faults the host should
// see, mirroring the Execute error return.
type ToolResult struct {
	Success bool
	Output  string
	Data    interface{}
	Error   error
}
