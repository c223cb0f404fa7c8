package agents

import "github.com/aretw0/tandem/pkg/ports"

// Default agent names, matching the workflow node names.
const (
	ResearcherName = "researcher"
	ChartName      = "chart_generator"
)

// NewResearcher creates the research agent: web search plus the researcher prompt.
func NewResearcher(model ports.ChatModel, searcher ports.Searcher, opts ...Option) *ToolAgent {
	base := []Option{WithTools(NewSearchTool(searcher))}
	return NewToolAgent(ResearcherName, ResearcherPrompt, model, append(base, opts...)...)
}

// NewChartGenerator creates the chart agent: python execution plus the chart prompt.
func NewChartGenerator(model ports.ChatModel, executor ports.CodeExecutor, opts ...Option) *ToolAgent {
	base := []Option{WithTools(NewPythonTool(executor))}
	return NewToolAgent(ChartName, ChartPrompt, model, append(base, opts...)...)
}
