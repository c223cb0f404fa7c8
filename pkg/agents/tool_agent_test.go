package agents_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/tandem/pkg/agents"
	"github.com/aretw0/tandem/pkg/domain"
	"github.com/aretw0/tandem/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedModel returns its responses in order and records every request.
type scriptedModel struct {
	responses []ports.ChatResponse
	err       error
	requests  []ports.ChatRequest
}

func (m *scriptedModel) Complete(ctx context.Context, req ports.ChatRequest) (ports.ChatResponse, error) {
	turns := make([]ports.ChatTurn, len(req.Turns))
	copy(turns, req.Turns)
	req.Turns = turns
	m.requests = append(m.requests, req)

	if m.err != nil {
		return ports.ChatResponse{}, m.err
	}
	i := len(m.requests) - 1
	if i >= len(m.responses) {
		i = len(m.responses) - 1
	}
	return m.responses[i], nil
}

type fakeSearcher struct {
	results []ports.SearchResult
	err     error
	queries []string
}

func (s *fakeSearcher) Search(ctx context.Context, query string) ([]ports.SearchResult, error) {
	s.queries = append(s.queries, query)
	return s.results, s.err
}

type fakeExecutor struct {
	result ports.ExecResult
	err    error
	code   []string
}

func (e *fakeExecutor) Execute(ctx context.Context, code string) (ports.ExecResult, error) {
	e.code = append(e.code, code)
	return e.result, e.err
}

func toolCall(id, name, args string) domain.ToolCall {
	return domain.ToolCall{ID: id, Name: name, Arguments: args}
}

func TestToolAgent_PlainAnswer(t *testing.T) {
	model := &scriptedModel{responses: []ports.ChatResponse{{Content: "hello", Usage: ports.Usage{InputTokens: 10, OutputTokens: 2}}}}

	var usage []ports.Usage
	agent := agents.NewToolAgent("solo", "be nice", model, agents.WithUsageHook(func(ctx context.Context, name string, u ports.Usage) {
		assert.Equal(t, "solo", name)
		usage = append(usage, u)
	}))

	msg, err := agent.Invoke(context.Background(), domain.NewConversation(domain.NewUserMessage("hi")))
	require.NoError(t, err)
	assert.Equal(t, domain.NewAssistantMessage("solo", "hello"), msg)
	require.Len(t, model.requests, 1)
	assert.Equal(t, "be nice", model.requests[0].System)
	assert.Equal(t, []ports.Usage{{InputTokens: 10, OutputTokens: 2}}, usage)
}

func TestToolAgent_ConversationView(t *testing.T) {
	model := &scriptedModel{responses: []ports.ChatResponse{{Content: "ok"}}}
	agent := agents.NewToolAgent("chart", "", model)

	conv := domain.NewConversation(
		domain.NewUserMessage("draw GDP"),
		domain.NewAssistantMessage("research", "the data"),
		domain.NewAssistantMessage("chart", "QUESTION_TO_RESEARCHER which years?"),
	)
	_, err := agent.Invoke(context.Background(), conv)
	require.NoError(t, err)

	turns := model.requests[0].Turns
	require.Len(t, turns, 3)
	assert.Equal(t, ports.ChatTurn{Role: domain.RoleUser, Content: "draw GDP"}, turns[0])
	assert.Equal(t, ports.ChatTurn{Role: domain.RoleUser, Content: "the data", Name: "research"}, turns[1])
	assert.Equal(t, ports.ChatTurn{Role: domain.RoleAssistant, Content: "QUESTION_TO_RESEARCHER which years?", Name: "chart"}, turns[2])
}

func TestToolAgent_ToolLoop(t *testing.T) {
	searcher := &fakeSearcher{results: []ports.SearchResult{{Title: "GDP", URL: "https://ons.gov.uk", Content: "3.1T"}}}
	model := &scriptedModel{responses: []ports.ChatResponse{
		{ToolCalls: []domain.ToolCall{toolCall("call_1", agents.SearchToolName, `{"query":"UK GDP"}`)}},
		{Content: "UK GDP was 3.1T. A line chart fits."},
	}}

	var events []domain.EventType
	hooks := domain.LifecycleHooks{
		OnToolCall:   func(ctx context.Context, e *domain.ToolEvent) { events = append(events, e.Type) },
		OnToolReturn: func(ctx context.Context, e *domain.ToolEvent) { events = append(events, e.Type) },
	}
	agent := agents.NewResearcher(model, searcher, agents.WithLifecycleHooks(hooks))

	msg, err := agent.Invoke(context.Background(), domain.NewConversation(domain.NewUserMessage("UK GDP?")))
	require.NoError(t, err)

	assert.Equal(t, agents.ResearcherName, msg.Name)
	assert.Equal(t, "UK GDP was 3.1T. A line chart fits.", msg.Content)
	assert.Equal(t, []string{"UK GDP"}, searcher.queries)
	assert.Equal(t, []domain.EventType{domain.EventToolCall, domain.EventToolReturn}, events)

	require.Len(t, model.requests, 2)
	second := model.requests[1].Turns
	require.Len(t, second, 3)
	assert.Equal(t, domain.RoleAssistant, second[1].Role)
	assert.Len(t, second[1].ToolCalls, 1)
	assert.Equal(t, domain.RoleTool, second[2].Role)
	assert.Equal(t, "call_1", second[2].ToolCallID)
	assert.Contains(t, second[2].Content, "3.1T")

	require.Len(t, model.requests[0].Tools, 1)
	assert.Equal(t, agents.SearchToolName, model.requests[0].Tools[0].Name)
}

func TestToolAgent_ModelFailure(t *testing.T) {
	cause := errors.New("rate limited")
	agent := agents.NewToolAgent("solo", "", &scriptedModel{err: cause})

	_, err := agent.Invoke(context.Background(), domain.NewConversation(domain.NewUserMessage("hi")))

	var agentErr *domain.AgentExecutionError
	require.ErrorAs(t, err, &agentErr)
	assert.Equal(t, "solo", agentErr.Agent)

	var capErr *domain.CapabilityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, "model", capErr.Capability)
	assert.ErrorIs(t, err, cause)
}

func TestToolAgent_SearchFailurePropagates(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("quota exceeded")}
	model := &scriptedModel{responses: []ports.ChatResponse{
		{ToolCalls: []domain.ToolCall{toolCall("c1", agents.SearchToolName, `{"query":"x"}`)}},
	}}
	agent := agents.NewResearcher(model, searcher)

	_, err := agent.Invoke(context.Background(), domain.NewConversation(domain.NewUserMessage("x")))

	var agentErr *domain.AgentExecutionError
	require.ErrorAs(t, err, &agentErr)
	var capErr *domain.CapabilityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, "search", capErr.Capability)
}

func TestToolAgent_UnknownTool(t *testing.T) {
	model := &scriptedModel{responses: []ports.ChatResponse{
		{ToolCalls: []domain.ToolCall{toolCall("c1", "rm_rf", `{}`)}},
	}}
	agent := agents.NewToolAgent("solo", "", model)

	_, err := agent.Invoke(context.Background(), domain.NewConversation(domain.NewUserMessage("x")))
	assert.ErrorIs(t, err, agents.ErrUnknownTool)
}

func TestToolAgent_ToolRoundsExceeded(t *testing.T) {
	exec := &fakeExecutor{result: ports.ExecResult{Output: "ok"}}
	model := &scriptedModel{responses: []ports.ChatResponse{
		{ToolCalls: []domain.ToolCall{toolCall("c", agents.PythonToolName, `{"code":"print(1)"}`)}},
	}}
	agent := agents.NewChartGenerator(model, exec, agents.WithMaxToolRounds(3))

	_, err := agent.Invoke(context.Background(), domain.NewConversation(domain.NewUserMessage("x")))
	assert.ErrorIs(t, err, agents.ErrToolRoundsExceeded)
	assert.Len(t, exec.code, 3)
	assert.Len(t, model.requests, 4)
}

func TestPrompts_MentionControlPhrase(t *testing.T) {
	assert.True(t, strings.Contains(agents.ChartPrompt, agents.ControlPhrase))
	assert.False(t, strings.Contains(agents.ResearcherPrompt, agents.ControlPhrase))
}
