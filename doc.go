/*
Package tandem runs a two-agent research-and-visualization workflow on a small graph runtime.

A research agent gathers data with a web search tool; a chart agent turns that data into a
chart by writing and executing Python. After every chart turn a router inspects the last
message: if it contains the control phrase QUESTION_TO_RESEARCHER, control goes back to the
researcher for more data, otherwise the run ends.

# Concept

The conversation is an append-only list of messages. Each node (agent) receives a read-only
snapshot of the whole history and returns exactly one new message, which the runtime appends.
The graph is defined once and shared by every run; a run owns its own conversation.

Capabilities (model inference, search, code execution) are injected into the agents at
construction time, so tests can swap them for deterministic fakes.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/tandem"
		"github.com/aretw0/tandem/pkg/agents"
	)

	func main() {
		researcher := agents.NewResearcher(model, searcher)
		charts := agents.NewChartGenerator(model, executor)

		eng, err := tandem.New(researcher, charts)
		if err != nil {
			log.Fatal(err)
		}

		conv, err := eng.Ask(context.Background(), "Fetch the UK's GDP over the past 3 years, then draw a line graph of it.")
		if err != nil {
			log.Fatal(err)
		}

		for _, msg := range conv.Messages() {
			fmt.Println(msg)
		}
	}

# Errors

A failing agent aborts the run with *domain.AgentExecutionError. A router returning a key
with no branch yields *domain.RoutingError, and runaway loops are stopped by
*domain.StepLimitError. All of them expose the conversation at the time of the failure
in their Partial field, for diagnostics only.
*/
package tandem
