package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aretw0/tandem/pkg/domain"
	"github.com/aretw0/tandem/pkg/dsl"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	conv     domain.Conversation
	err      error
	requests []string
}

func (f *fakeEngine) Ask(ctx context.Context, request string) (domain.Conversation, error) {
	f.requests = append(f.requests, request)
	return f.conv, f.err
}

func (f *fakeEngine) Graph() *domain.Graph {
	noop := func(ctx context.Context, conv domain.Conversation) (domain.Message, error) {
		return domain.Message{}, nil
	}
	b := dsl.New()
	b.Add("researcher").Func(noop).Go("chart_generator")
	b.Add("chart_generator").Func(noop).Terminal()
	return b.MustBuild()
}

func finished() domain.Conversation {
	return domain.NewConversation(
		domain.NewUserMessage("draw GDP"),
		domain.NewAssistantMessage("researcher", "GDP data"),
		domain.NewAssistantMessage("chart_generator", "FINAL ANSWER: chart drawn"),
	)
}

// call sends one JSON-RPC message and returns its decoded "result" field.
func call(t *testing.T, s *Server, msg string) map[string]any {
	t.Helper()
	out := s.MCPServer().HandleMessage(context.Background(), json.RawMessage(msg))
	raw, err := json.Marshal(out)
	require.NoError(t, err)

	var envelope struct {
		Result map[string]any `json:"result"`
		Error  map[string]any `json:"error"`
	}
	require.NoError(t, json.Unmarshal(raw, &envelope))
	require.Nil(t, envelope.Error, "unexpected error: %s", raw)
	return envelope.Result
}

func TestHandleVisualize(t *testing.T) {
	engine := &fakeEngine{conv: finished()}
	s := NewServer(engine)

	resp, err := s.handleVisualize(context.Background(), mcp.CallToolRequest{}, VisualizeArgs{Request: "  draw GDP \n"})
	require.NoError(t, err)

	assert.Equal(t, []string{"draw GDP"}, engine.requests)
	assert.Equal(t, "FINAL ANSWER: chart drawn", resp.Final)
	assert.Len(t, resp.Messages, 3)
	assert.Empty(t, resp.Error)
}

func TestHandleVisualize_RejectsInput(t *testing.T) {
	engine := &fakeEngine{conv: finished()}
	s := NewServer(engine)

	_, err := s.handleVisualize(context.Background(), mcp.CallToolRequest{}, VisualizeArgs{Request: "   "})
	assert.Error(t, err)

	_, err = s.handleVisualize(context.Background(), mcp.CallToolRequest{}, VisualizeArgs{Request: "bad \xff"})
	assert.Error(t, err)

	assert.Empty(t, engine.requests)
}

func TestHandleVisualize_PartialOnFailure(t *testing.T) {
	partial := domain.NewConversation(
		domain.NewUserMessage("draw GDP"),
		domain.NewAssistantMessage("researcher", "GDP data"),
	)
	engine := &fakeEngine{err: &domain.AgentExecutionError{Agent: "chart_generator", Err: errors.New("boom"), Partial: partial}}
	s := NewServer(engine)

	resp, err := s.handleVisualize(context.Background(), mcp.CallToolRequest{}, VisualizeArgs{Request: "draw GDP"})
	require.NoError(t, err)
	assert.Len(t, resp.Messages, 2)
	assert.Contains(t, resp.Error, "boom")
	assert.Empty(t, resp.Final)
}

func TestHandleVisualize_FailureWithoutPartial(t *testing.T) {
	s := NewServer(&fakeEngine{err: context.Canceled})

	_, err := s.handleVisualize(context.Background(), mcp.CallToolRequest{}, VisualizeArgs{Request: "draw GDP"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestServer_ListTools(t *testing.T) {
	s := NewServer(&fakeEngine{})

	result := call(t, s, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	tools, ok := result["tools"].([]any)
	require.True(t, ok)

	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		entry := tool.(map[string]any)
		names = append(names, entry["name"].(string))
		if entry["name"] == "visualize" {
			assert.Contains(t, entry["description"], "QUESTION_TO_RESEARCHER")
			assert.NotContains(t, entry["description"], "FINAL ANSWER")
		}
	}
	assert.ElementsMatch(t, []string{"visualize", "describe_graph"}, names)
}

func TestServer_DescribeGraph(t *testing.T) {
	s := NewServer(&fakeEngine{})

	result := call(t, s, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"describe_graph","arguments":{}}}`)
	content, ok := result["content"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, content)

	text := content[0].(map[string]any)["text"].(string)
	assert.Contains(t, text, "graph TD")
	assert.Contains(t, text, "researcher --> chart_generator")
}

func TestServer_GraphResource(t *testing.T) {
	s := NewServer(&fakeEngine{})

	result := call(t, s, `{"jsonrpc":"2.0","id":3,"method":"resources/read","params":{"uri":"tandem://graph"}}`)
	contents, ok := result["contents"].([]any)
	require.True(t, ok)
	require.Len(t, contents, 1)

	entry := contents[0].(map[string]any)
	assert.Equal(t, GraphURI, entry["uri"])
	assert.Contains(t, entry["text"], "graph TD")
}
