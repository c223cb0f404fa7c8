package dsl

import (
	"context"
	"fmt"

	"github.com/aretw0/tandem/pkg/domain"
	"github.com/aretw0/tandem/pkg/ports"
)

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    domain.Node
	edge    *domain.Edge
	cond    *domain.ConditionalEdge
	errs    []error
	builder *Builder
}

// Agent sets the agent invoked when the node runs.
func (n *NodeBuilder) Agent(a ports.Agent) *NodeBuilder {
	if a == nil {
		n.errs = append(n.errs, fmt.Errorf("node %q: nil agent", n.node.Name))
		return n
	}
	n.node.Run = a.Invoke
	return n
}

// Func sets a plain function as the work of the node.
func (n *NodeBuilder) Func(fn func(ctx context.Context, conv domain.Conversation) (domain.Message, error)) *NodeBuilder {
	n.node.Run = fn
	return n
}

// Describe attaches a human readable description, shown in diagrams.
func (n *NodeBuilder) Describe(text string) *NodeBuilder {
	n.node.Description = text
	return n
}

// Go adds an unconditional transition to the target node (or domain.End).
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	if n.edge != nil || n.cond != nil {
		n.errs = append(n.errs, fmt.Errorf("node %q: outgoing edge already set", n.node.Name))
		return n
	}
	n.edge = &domain.Edge{From: n.node.Name, To: target}
	return n
}

// Terminal is shorthand for Go(domain.End).
func (n *NodeBuilder) Terminal() *NodeBuilder {
	return n.Go(domain.End)
}

// Branch adds a conditional transition: after the node runs, route is evaluated
// and its key is looked up in branches to find the next node.
func (n *NodeBuilder) Branch(route domain.Router, branches map[string]string) *NodeBuilder {
	if n.edge != nil || n.cond != nil {
		n.errs = append(n.errs, fmt.Errorf("node %q: outgoing edge already set", n.node.Name))
		return n
	}
	n.cond = &domain.ConditionalEdge{From: n.node.Name, Route: route, Branches: branches}
	return n
}

// Add returns to the parent builder to define another node.
func (n *NodeBuilder) Add(name string) *NodeBuilder {
	return n.builder.Add(name)
}
