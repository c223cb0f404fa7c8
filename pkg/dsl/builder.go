package dsl

import (
	"fmt"

	"github.com/aretw0/tandem/internal/runtime"
	"github.com/aretw0/tandem/pkg/domain"
)

// Builder manages the graph construction.
type Builder struct {
	start string
	nodes map[string]*NodeBuilder
	order []string
}

// New creates a new graph builder.
func New() *Builder {
	return &Builder{
		nodes: make(map[string]*NodeBuilder),
	}
}

// Start sets the entry node of the graph.
// When never called, the first added node is used.
func (b *Builder) Start(name string) *Builder {
	b.start = name
	return b
}

// Add creates a new node in the graph.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(name string) *NodeBuilder {
	if nb, ok := b.nodes[name]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node:    domain.Node{Name: name},
		builder: b,
	}
	b.nodes[name] = nb
	b.order = append(b.order, name)
	return nb
}

// Build compiles and validates the graph.
// The returned graph shares no state with the builder.
func (b *Builder) Build() (*domain.Graph, error) {
	start := b.start
	if start == "" && len(b.order) > 0 {
		start = b.order[0]
	}

	g := &domain.Graph{
		Start:        start,
		Nodes:        make(map[string]domain.Node, len(b.nodes)),
		Edges:        make(map[string]domain.Edge),
		Conditionals: make(map[string]domain.ConditionalEdge),
	}

	var problems []error
	for _, name := range b.order {
		nb := b.nodes[name]
		g.Nodes[name] = nb.node
		problems = append(problems, nb.errs...)

		if nb.edge != nil {
			g.Edges[name] = *nb.edge
		}
		if nb.cond != nil {
			branches := make(map[string]string, len(nb.cond.Branches))
			for k, v := range nb.cond.Branches {
				branches[k] = v
			}
			g.Conditionals[name] = domain.ConditionalEdge{
				From:     name,
				Route:    nb.cond.Route,
				Branches: branches,
			}
		}
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidGraph, problems[0])
	}
	if err := runtime.Validate(g); err != nil {
		return nil, err
	}
	return g, nil
}

// MustBuild is like Build but panics on error.
// It is meant for package-level graph definitions that are known to be valid.
func (b *Builder) MustBuild() *domain.Graph {
	g, err := b.Build()
	if err != nil {
		panic(err)
	}
	return g
}
