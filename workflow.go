package tandem

import (
	"strings"

	"github.com/aretw0/tandem/pkg/agents"
	"github.com/aretw0/tandem/pkg/domain"
	"github.com/aretw0/tandem/pkg/dsl"
	"github.com/aretw0/tandem/pkg/ports"
)

// Node names of the research/chart workflow.
const (
	NodeResearcher = "researcher"
	NodeChart      = "chart_generator"
)

// ControlPhrase is the marker the chart agent writes when it needs more data from the researcher.
// Matching is case-sensitive.
const ControlPhrase = agents.ControlPhrase

// Branch keys returned by RouteChart.
const (
	BranchResearch = "continue"
	BranchEnd      = "end"
)

// RouteChart decides where control goes after the chart agent spoke.
// Only the most recent message is inspected: if its content contains ControlPhrase
// the researcher runs again, otherwise the workflow ends.
func RouteChart(conv domain.Conversation) string {
	last, ok := conv.Last()
	if ok && strings.Contains(last.Content, ControlPhrase) {
		return BranchResearch
	}
	return BranchEnd
}

// BuildGraph wires the two agents into the workflow topology:
//
//	researcher -> chart_generator -> (RouteChart) { continue: researcher, end: END }
func BuildGraph(research, chart ports.Agent) (*domain.Graph, error) {
	b := dsl.New().Start(NodeResearcher)

	b.Add(NodeResearcher).
		Agent(research).
		Describe("Researches data with web search").
		Go(NodeChart)

	b.Add(NodeChart).
		Agent(chart).
		Describe("Writes and runs chart code").
		Branch(RouteChart, map[string]string{
			BranchResearch: NodeResearcher,
			BranchEnd:      domain.End,
		})

	return b.Build()
}
