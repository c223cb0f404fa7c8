package domain

import (
	"context"
	"sort"
)

// End is the terminal marker. Routing to End stops the run.
const End = "__end__"

// NodeFunc is the unit of work wrapped by a node.
// It receives a read snapshot of the conversation and returns exactly one message to append.
type NodeFunc func(ctx context.Context, conv Conversation) (Message, error)

// Router inspects the conversation after a node ran and returns a branch key.
// Routers should be pure functions of their input.
type Router func(conv Conversation) string

// Node represents a named step in the graph.
type Node struct {
	Name string
	Run  NodeFunc

	// Description is optional and only used for introspection (e.g. diagrams).
	Description string
}

// Edge is an unconditional transition from one node to another (or to End).
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ConditionalEdge selects the next node by evaluating Route and looking up
// the returned key in Branches. One branch may map to End.
type ConditionalEdge struct {
	From     string            `json:"from"`
	Route    Router            `json:"-"`
	Branches map[string]string `json:"branches"`
}

// Graph is the immutable definition of a workflow.
// It is built once per process (see package dsl) and shared read-only by all runs.
type Graph struct {
	Start        string
	Nodes        map[string]Node
	Edges        map[string]Edge
	Conditionals map[string]ConditionalEdge
}

// Node returns the node registered under name.
func (g *Graph) Node(name string) (Node, bool) {
	n, ok := g.Nodes[name]
	return n, ok
}

// NodeNames returns the node names sorted alphabetically, for stable output.
func (g *Graph) NodeNames() []string {
	names := make([]string, 0, len(g.Nodes))
	for name := range g.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Targets lists every destination reachable in one step from the named node.
// Conditional branches are returned sorted by branch key.
func (g *Graph) Targets(from string) []string {
	if e, ok := g.Edges[from]; ok {
		return []string{e.To}
	}
	ce, ok := g.Conditionals[from]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(ce.Branches))
	for k := range ce.Branches {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	targets := make([]string, 0, len(keys))
	for _, k := range keys {
		targets = append(targets, ce.Branches[k])
	}
	return targets
}
