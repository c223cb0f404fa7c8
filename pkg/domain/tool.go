package domain

// ToolCall represents a request from a model to run one of the tools of an agent.
// Compatible with OpenAI/MCP tool call schemas.
type ToolCall struct {
	ID        string `json:"id"`        // Unique ID for this call, echoed back in the result
	Name      string `json:"name"`      // Function name to call
	Arguments string `json:"arguments"` // Raw JSON arguments as produced by the model
}

// Tool describes a tool available to an agent.
// This is used for generating schemas/prompts.
type Tool struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	Parameters  map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}
