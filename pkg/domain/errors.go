package domain

import (
	"errors"
	"fmt"
)

// ErrStepLimitExceeded is returned when a run executes more nodes than allowed.
var ErrStepLimitExceeded = errors.New("step limit exceeded")

// ErrInvalidGraph is returned when a graph definition fails validation.
var ErrInvalidGraph = errors.New("invalid graph")

// ErrEmptyConversation is returned when a run is started without any message.
var ErrEmptyConversation = errors.New("conversation is empty")

// ErrRunNotFound is returned by run stores for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// CapabilityError reports a failing call to a capability beneath an agent
// (model inference, search, code execution).
type CapabilityError struct {
	Capability string
	Err        error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("capability %q failed: %v", e.Capability, e.Err)
}

func (e *CapabilityError) Unwrap() error {
	return e.Err
}

// AgentExecutionError reports that an agent could not produce a message at all.
// The runtime never catches it: the run aborts and the error reaches the caller.
type AgentExecutionError struct {
	Agent string
	Err   error

	// Partial is the conversation as it was when the agent failed.
	// It is provided for diagnostics only and is NOT a completed result.
	Partial Conversation
}

func (e *AgentExecutionError) Error() string {
	return fmt.Sprintf("agent %q failed: %v", e.Agent, e.Err)
}

func (e *AgentExecutionError) Unwrap() error {
	return e.Err
}

// RoutingError reports that a router returned a key missing from its branch map.
// It signals a construction bug in the graph, not a runtime condition.
type RoutingError struct {
	Node string
	Key  string

	// Partial is the conversation at the time of the failure (diagnostics only).
	Partial Conversation
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("node %q routed to unknown branch %q", e.Node, e.Key)
}

// StepLimitError reports that a run was stopped by the step limit safeguard.
type StepLimitError struct {
	Limit int

	// Partial is the conversation at the time the limit was hit (diagnostics only).
	Partial Conversation
}

func (e *StepLimitError) Error() string {
	return fmt.Sprintf("%v: %d node executions", ErrStepLimitExceeded, e.Limit)
}

func (e *StepLimitError) Unwrap() error {
	return ErrStepLimitExceeded
}

// PartialOf extracts the diagnostic conversation carried by a run error, if any.
func PartialOf(err error) (Conversation, bool) {
	var (
		agentErr *AgentExecutionError
		routeErr *RoutingError
		limitErr *StepLimitError
	)
	switch {
	case errors.As(err, &agentErr):
		return agentErr.Partial, !agentErr.Partial.IsEmpty()
	case errors.As(err, &routeErr):
		return routeErr.Partial, !routeErr.Partial.IsEmpty()
	case errors.As(err, &limitErr):
		return limitErr.Partial, !limitErr.Partial.IsEmpty()
	}
	return Conversation{}, false
}
