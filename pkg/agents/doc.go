// Package agents provides the model-driven agents of the workflow.
//
// A ToolAgent wraps a ports.ChatModel, a system prompt and a set of tools. On each
// invocation it replays the shared conversation to the model and runs the model's
// tool calls until the model answers with plain text, which becomes the agent's one
// message. NewResearcher and NewChartGenerator configure a ToolAgent for the two roles.
package agents
