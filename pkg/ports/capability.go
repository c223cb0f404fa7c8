package ports

import (
	"context"

	"github.com/aretw0/tandem/pkg/domain"
)

// SearchResult is one hit returned by a Searcher.
type SearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
}

// Searcher performs web searches on behalf of an agent.
type Searcher interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// ExecResult is the outcome of running a piece of code.
// A non-zero ExitCode or a non-empty Error describes a failure of the code itself,
// not of the executor.
type ExecResult struct {
	Output   string `json:"output"`
	Error    string `json:"error,omitempty"`
	ExitCode int    `json:"exit_code"`
}

// Failed reports whether the executed code did not complete successfully.
func (r ExecResult) Failed() bool {
	return r.ExitCode != 0 || r.Error != ""
}

// CodeExecutor runs code in a sandbox and reports its output.
// An error return means the executor itself could not run (missing interpreter,
// I/O failure); problems in the code are reported through ExecResult.
type CodeExecutor interface {
	Execute(ctx context.Context, code string) (ExecResult, error)
}

// ChatTurn is one entry of the transcript sent to a ChatModel.
type ChatTurn struct {
	Role    domain.Role
	Content string
	Name    string

	// ToolCalls is set on assistant turns that requested tools.
	ToolCalls []domain.ToolCall

	// ToolCallID is set on tool turns and echoes the ID of the answered call.
	ToolCallID string
}

// ChatRequest is a single inference request.
type ChatRequest struct {
	System string
	Turns  []ChatTurn
	Tools  []domain.Tool
}

// Usage reports token consumption of a single inference.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// ChatResponse is the model's reply: either final content, tool calls, or both.
type ChatResponse struct {
	Content   string
	ToolCalls []domain.ToolCall
	Usage     Usage
}

// ChatModel abstracts language-model inference.
type ChatModel interface {
	Complete(ctx context.Context, req ChatRequest) (ChatResponse, error)
}
