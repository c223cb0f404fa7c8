package domain

import "fmt"

// Role identifies who produced a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleTool, RoleSystem:
		return true
	}
	return false
}

// Message is one turn of the conversation.
// It is a value type: once created it is never mutated, only copied.
type Message struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`

	// Name is the author of the message (e.g. the agent that produced it).
	// Optional for user and system messages.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// NewUserMessage creates a message authored by the end user.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates a message authored by the named agent.
func NewAssistantMessage(name, content string) Message {
	return Message{Role: RoleAssistant, Content: content, Name: name}
}

// NewSystemMessage creates a system instruction message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewToolMessage creates a message carrying the textual output of a tool.
func NewToolMessage(name, content string) Message {
	return Message{Role: RoleTool, Content: content, Name: name}
}

// String implements fmt.Stringer for logs and debugging.
func (m Message) String() string {
	if m.Name != "" {
		return fmt.Sprintf("%s(%s): %s", m.Role, m.Name, m.Content)
	}
	return fmt.Sprintf("%s: %s", m.Role, m.Content)
}
