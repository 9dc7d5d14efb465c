// Package tool defines the declarative tool registry a deep agent draws its
// capabilities from. Tools are registered once under a unique name with a
// JSON-schema parameter declaration; agents and sub-agent definitions then
// reference registry subsets by name instead of re-declaring closures.
package tool

import "context"

// Tool is an executable capability exposed to the agent loop.
type Tool interface {
	// Name returns the unique identifier of the tool.
	Name() string

	// Description gives the model-facing summary of when to use the tool.
	Description() string

	// Schema describes the tool parameters. Nil means no input expected.
	Schema() *JSONSchema

	// Execute runs the tool. Domain failures (missing file, unknown id)
	// are reported inside the result as text per the errors-as-text
	// contract; the error return is reserved for malformed parameters and
	// infrastructure faults.
	Execute(ctx context.Context, params map[string]interface{}) (*ToolResult, error)
}
