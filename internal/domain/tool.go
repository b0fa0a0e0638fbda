package domain

import "context"

// Tool is one named, schema-described operation exposed to the external
// caller. Execute returns the textual result payload; classified API errors
// propagate as errors and are converted to text at the gateway boundary.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// ToolDefinition is the discoverable schema of a tool.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}
