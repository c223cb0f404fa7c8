package agents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/tandem/internal/logging"
	"github.com/aretw0/tandem/pkg/domain"
	"github.com/aretw0/tandem/pkg/ports"
)

// DefaultMaxToolRounds bounds how many times the model may request tools within one invocation.
const DefaultMaxToolRounds = 10

// ErrUnknownTool is returned when the model calls a tool the agent does not have.
var ErrUnknownTool = errors.New("unknown tool")

// ErrToolRoundsExceeded is returned when the model keeps calling tools past the allowed rounds.
var ErrToolRoundsExceeded = errors.New("tool rounds exceeded")

// UsageHook receives the token usage of every model call made by an agent.
type UsageHook func(ctx context.Context, agent string, usage ports.Usage)

// ToolAgent is a model-driven agent with a system prompt and a set of tools.
// It is safe for concurrent use as long as its model and tools are.
type ToolAgent struct {
	name      string
	system    string
	model     ports.ChatModel
	tools     []Tool
	byName    map[string]Tool
	maxRounds int
	hooks     domain.LifecycleHooks
	onUsage   UsageHook
	logger    *slog.Logger
}

// Option configures a ToolAgent.
type Option func(*ToolAgent)

// WithLogger sets a custom structured logger for the agent.
func WithLogger(logger *slog.Logger) Option {
	return func(a *ToolAgent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithLifecycleHooks registers hooks; only the tool events are emitted by agents.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(a *ToolAgent) {
		a.hooks = hooks
	}
}

// WithMaxToolRounds bounds the tool-calling loop of a single invocation.
func WithMaxToolRounds(n int) Option {
	return func(a *ToolAgent) {
		if n > 0 {
			a.maxRounds = n
		}
	}
}

// WithUsageHook registers a callback for token accounting.
func WithUsageHook(hook UsageHook) Option {
	return func(a *ToolAgent) {
		a.onUsage = hook
	}
}

// WithSystemPrompt overrides the agent's system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(a *ToolAgent) {
		a.system = prompt
	}
}

// WithTools adds tools to the agent.
func WithTools(tools ...Tool) Option {
	return func(a *ToolAgent) {
		a.tools = append(a.tools, tools...)
	}
}

// NewToolAgent creates an agent named name driven by model.
func NewToolAgent(name, system string, model ports.ChatModel, opts ...Option) *ToolAgent {
	a := &ToolAgent{
		name:      name,
		system:    system,
		model:     model,
		maxRounds: DefaultMaxToolRounds,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.byName = make(map[string]Tool, len(a.tools))
	for _, t := range a.tools {
		a.byName[t.Spec().Name] = t
	}
	a.logger = a.logger.With("agent", name)
	return a
}

// Name returns the agent identity used as author of its messages.
func (a *ToolAgent) Name() string {
	return a.name
}

// Tools returns the specs of the tools offered to the model.
func (a *ToolAgent) Tools() []domain.Tool {
	specs := make([]domain.Tool, 0, len(a.tools))
	for _, t := range a.tools {
		specs = append(specs, t.Spec())
	}
	return specs
}

// Invoke replays the conversation to the model and runs the tool loop until the model
// answers in plain text. Any failure is returned as *domain.AgentExecutionError.
func (a *ToolAgent) Invoke(ctx context.Context, conv domain.Conversation) (domain.Message, error) {
	req := ports.ChatRequest{
		System: a.system,
		Turns:  a.turns(conv),
		Tools:  a.Tools(),
	}

	for round := 0; ; round++ {
		resp, err := a.model.Complete(ctx, req)
		if err != nil {
			return domain.Message{}, a.fail(conv, asCapabilityError("model", err))
		}
		if a.onUsage != nil {
			a.onUsage(ctx, a.name, resp.Usage)
		}

		if len(resp.ToolCalls) == 0 {
			a.logger.Debug("agent answered", "rounds", round, "chars", len(resp.Content))
			return domain.NewAssistantMessage(a.name, resp.Content), nil
		}

		if round >= a.maxRounds {
			return domain.Message{}, a.fail(conv, fmt.Errorf("%w: limit is %d", ErrToolRoundsExceeded, a.maxRounds))
		}

		req.Turns = append(req.Turns, ports.ChatTurn{
			Role:      domain.RoleAssistant,
			Content:   resp.Content,
			Name:      a.name,
			ToolCalls: resp.ToolCalls,
		})

		for _, call := range resp.ToolCalls {
			output, err := a.callTool(ctx, call)
			if err != nil {
				return domain.Message{}, a.fail(conv, err)
			}
			req.Turns = append(req.Turns, ports.ChatTurn{
				Role:       domain.RoleTool,
				Content:    output,
				Name:       call.Name,
				ToolCallID: call.ID,
			})
		}
	}
}

func (a *ToolAgent) callTool(ctx context.Context, call domain.ToolCall) (string, error) {
	tool, ok := a.byName[call.Name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTool, call.Name)
	}

	a.emitTool(ctx, domain.EventToolCall, call, "", false, 0)
	a.logger.Debug("calling tool", "tool", call.Name)
	start := time.Now()

	output, err := tool.Call(ctx, call.Arguments)
	elapsed := time.Since(start)
	if err != nil {
		a.emitTool(ctx, domain.EventToolReturn, call, err.Error(), true, elapsed)
		return "", fmt.Errorf("tool %q failed: %w", call.Name, err)
	}

	a.emitTool(ctx, domain.EventToolReturn, call, output, false, elapsed)
	return output, nil
}

// turns converts the shared conversation into the model's view of it: the agent's own
// messages are assistant turns, everything said by others is a named user turn.
func (a *ToolAgent) turns(conv domain.Conversation) []ports.ChatTurn {
	msgs := conv.Messages()
	turns := make([]ports.ChatTurn, 0, len(msgs))
	for _, m := range msgs {
		switch {
		case m.Role == domain.RoleSystem:
			turns = append(turns, ports.ChatTurn{Role: domain.RoleSystem, Content: m.Content})
		case m.Role == domain.RoleAssistant && m.Name == a.name:
			turns = append(turns, ports.ChatTurn{Role: domain.RoleAssistant, Content: m.Content, Name: m.Name})
		default:
			turns = append(turns, ports.ChatTurn{Role: domain.RoleUser, Content: m.Content, Name: m.Name})
		}
	}
	return turns
}

func (a *ToolAgent) fail(conv domain.Conversation, err error) error {
	a.logger.Warn("agent failed", "err", err)
	return &domain.AgentExecutionError{Agent: a.name, Err: err, Partial: conv}
}

func (a *ToolAgent) emitTool(ctx context.Context, typ domain.EventType, call domain.ToolCall, output string, isErr bool, d time.Duration) {
	hook := a.hooks.OnToolCall
	if typ == domain.EventToolReturn {
		hook = a.hooks.OnToolReturn
	}
	if hook == nil {
		return
	}
	hook(ctx, &domain.ToolEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: typ, RunID: domain.RunIDFrom(ctx)},
		Agent:     a.name,
		ToolName:  call.Name,
		Input:     call.Arguments,
		Output:    output,
		IsError:   isErr,
		Duration:  d,
	})
}

func asCapabilityError(capability string, err error) error {
	var capErr *domain.CapabilityError
	if errors.As(err, &capErr) {
		return err
	}
	return &domain.CapabilityError{Capability: capability, Err: err}
}
