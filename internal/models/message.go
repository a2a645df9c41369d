// ABOUTME: Chat message, tool definition and model response types
// ABOUTME: Vendor-neutral shapes exchanged between the router and the model client
package models

// Chat roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one entry of conversation history
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolDefinition exposes a skill to the model as a callable tool
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// ToolCall is a model-issued request to run a tool
type ToolCall struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Params map[string]any `json:"params"`
}

// ChatRequest is a single model call
type ChatRequest struct {
	Model    string           `json:"model"`
	System   string           `json:"system"`
	Messages []ChatMessage    `json:"messages"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
	// MaxTokens caps the completion; zero leaves it to the client default
	MaxTokens int `json:"max_tokens,omitempty"`
}

// ModelResponse is what a model call returns: text, tool calls, or both empty
type ModelResponse struct {
	Text         string     `json:"text"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	InputTokens  int        `json:"input_tokens"`
	OutputTokens int        `json:"output_tokens"`
}

// HasToolUse reports whether the model asked for at least one tool
func (r *ModelResponse) HasToolUse() bool {
	return r != nil && len(r.ToolCalls) > 0
}

// TotalTokens returns input plus output tokens
func (r *ModelResponse) TotalTokens() int {
	if r == nil {
		return 0
	}
	return r.InputTokens + r.OutputTokens
}
