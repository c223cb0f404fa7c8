/*
Package dsl provides a Go DSL (Domain Specific Language) for programmatically constructing Tandem graphs.

A graph is a set of named nodes, each wrapping an agent, plus exactly one outgoing edge per
node: either an unconditional hop (Go) or a router with a branch map (Branch). Build validates
the result and returns an immutable *domain.Graph ready to be handed to the runtime.

Example usage:

	package main

	import (
		"github.com/aretw0/tandem/pkg/domain"
		"github.com/aretw0/tandem/pkg/dsl"
	)

	func main() {
		b := dsl.New().Start("researcher")

		b.Add("researcher").
			Agent(researcher).
			Go("chart_generator")

		b.Add("chart_generator").
			Agent(charts).
			Branch(route, map[string]string{
				"continue": "researcher",
				"end":      domain.End,
			})

		graph, err := b.Build()
		// ... pass graph to runtime.NewEngine(...)
	}
*/
package dsl
