package model

import "time"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry of the conversation history
type Message struct {
	Role    string
	Content string

	// ToolCalls is set on assistant messages that request tools
	ToolCalls []ToolCall

	// ToolCallID and ToolName are set on tool messages
	ToolCallID string
	ToolName   string

	Timestamp time.Time
}

// ToolCall is a tool invocation requested by the model
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// HasToolCalls reports whether the message requests at least one tool.
// An empty list counts as none.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}
