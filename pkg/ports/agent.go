package ports

import (
	"context"

	"github.com/aretw0/tandem/pkg/domain"
)

// Agent is a conversational participant wrapped by a graph node.
type Agent interface {
	// Name is the identity used as author of the messages the agent produces.
	Name() string

	// Invoke derives one new message from the full conversation it is given.
	// Implementations may perform any number of internal steps (tool calls, sub-turns)
	// but must surface exactly one terminal message.
	// When no message can be produced it returns a *domain.AgentExecutionError.
	Invoke(ctx context.Context, conv domain.Conversation) (domain.Message, error)
}

// AgentFunc adapts an ordinary function to the Agent interface.
type AgentFunc struct {
	AgentName string
	Fn        func(ctx context.Context, conv domain.Conversation) (domain.Message, error)
}

// NewAgentFunc creates a named Agent backed by fn.
func NewAgentFunc(name string, fn func(ctx context.Context, conv domain.Conversation) (domain.Message, error)) AgentFunc {
	return AgentFunc{AgentName: name, Fn: fn}
}

func (a AgentFunc) Name() string {
	return a.AgentName
}

func (a AgentFunc) Invoke(ctx context.Context, conv domain.Conversation) (domain.Message, error) {
	return a.Fn(ctx, conv)
}
