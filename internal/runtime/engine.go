package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/tandem/internal/logging"
	"github.com/aretw0/tandem/pkg/domain"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// DefaultMaxSteps bounds the number of node executions of a single run.
// It matches the recursion limit of the framework the workflow was first written for.
const DefaultMaxSteps = 25

// Engine is the core graph executor.
// It holds only the immutable graph and its configuration, so a single Engine
// can serve any number of sequential or concurrent runs.
type Engine struct {
	graph    *domain.Graph
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	maxSteps int
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMaxSteps sets the maximum number of node executions per run.
// Zero or a negative value disables the limit.
func WithMaxSteps(n int) EngineOption {
	return func(e *Engine) {
		e.maxSteps = n
	}
}

// NewEngine creates a new engine for the given graph.
// The graph is validated once here; it must not be mutated afterwards.
func NewEngine(graph *domain.Graph, opts ...EngineOption) (*Engine, error) {
	if err := Validate(graph); err != nil {
		return nil, err
	}

	e := &Engine{
		graph:    graph,
		logger:   logging.NewNop(),
		maxSteps: DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Graph returns the graph definition the engine executes.
func (e *Engine) Graph() *domain.Graph {
	return e.graph
}

// Run drives the graph from its start node until the terminal marker is reached.
//
// Each step invokes the current node with a snapshot of the conversation, appends the
// returned message, then resolves the next node from the outgoing edge. Cancellation
// is honoured between steps only: a node invocation is an atomic unit of work.
//
// On failure the returned conversation is empty; typed errors carry the partial
// conversation for diagnostics.
func (e *Engine) Run(ctx context.Context, initial domain.Conversation) (domain.Conversation, error) {
	if initial.IsEmpty() {
		return domain.Conversation{}, domain.ErrEmptyConversation
	}

	runID := domain.RunIDFrom(ctx)
	if runID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return domain.Conversation{}, fmt.Errorf("failed to generate run id: %w", err)
		}
		runID = id
		ctx = domain.WithRunID(ctx, runID)
	}
	logger := e.logger.With(domain.KeyRunID, runID)
	started := time.Now()

	e.emitRunStart(ctx, runID)

	conv := initial
	current := e.graph.Start
	steps := 0

	finish := func(err error) (domain.Conversation, error) {
		e.emitRunEnd(ctx, runID, steps, time.Since(started), err)
		if err != nil {
			logger.Error("run failed", "steps", steps, "err", err)
			return domain.Conversation{}, err
		}
		logger.Info("run finished", "steps", steps, "messages", conv.Len())
		return conv, nil
	}

	for current != domain.End {
		if err := ctx.Err(); err != nil {
			return finish(fmt.Errorf("run cancelled before node %q: %w", current, err))
		}
		if e.maxSteps > 0 && steps >= e.maxSteps {
			return finish(&domain.StepLimitError{Limit: e.maxSteps, Partial: conv})
		}

		node, ok := e.graph.Node(current)
		if !ok {
			// Unreachable for a validated graph.
			return finish(fmt.Errorf("%w: unknown node %q", domain.ErrInvalidGraph, current))
		}

		steps++
		stepLogger := logger.With(domain.KeyNode, node.Name, domain.KeyStep, steps)
		stepLogger.Debug("entering node")
		e.emitNodeEnter(ctx, runID, node.Name, steps)
		nodeStart := time.Now()

		msg, err := node.Run(ctx, conv)
		if err != nil {
			err = asAgentError(node.Name, err, conv)
			e.emitNodeLeave(ctx, runID, node.Name, steps, "", time.Since(nodeStart), err)
			return finish(err)
		}
		if msg.Role == "" {
			msg.Role = domain.RoleAssistant
		}
		if msg.Name == "" && msg.Role == domain.RoleAssistant {
			msg.Name = node.Name
		}

		conv = conv.Append(msg)

		next, err := e.resolveNext(node.Name, conv)
		e.emitNodeLeave(ctx, runID, node.Name, steps, next, time.Since(nodeStart), err)
		if err != nil {
			return finish(err)
		}

		stepLogger.Debug("leaving node", "next", next)
		current = next
	}

	return finish(nil)
}

// asAgentError normalises node failures into *domain.AgentExecutionError,
// keeping the underlying cause reachable through errors.Is/As.
func asAgentError(node string, err error, partial domain.Conversation) error {
	var agentErr *domain.AgentExecutionError
	if errors.As(err, &agentErr) {
		if agentErr.Partial.IsEmpty() {
			agentErr.Partial = partial
		}
		return err
	}
	return &domain.AgentExecutionError{Agent: node, Err: err, Partial: partial}
}

func (e *Engine) emitRunStart(ctx context.Context, runID string) {
	if e.hooks.OnRunStart == nil {
		return
	}
	e.hooks.OnRunStart(ctx, &domain.RunEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventRunStart, RunID: runID},
	})
}

func (e *Engine) emitRunEnd(ctx context.Context, runID string, steps int, d time.Duration, err error) {
	if e.hooks.OnRunEnd == nil {
		return
	}
	e.hooks.OnRunEnd(ctx, &domain.RunEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventRunEnd, RunID: runID},
		Steps:     steps,
		Duration:  d,
		Err:       err,
	})
}

func (e *Engine) emitNodeEnter(ctx context.Context, runID, node string, step int) {
	if e.hooks.OnNodeEnter == nil {
		return
	}
	e.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventNodeEnter, RunID: runID},
		Node:      node,
		Step:      step,
	})
}

func (e *Engine) emitNodeLeave(ctx context.Context, runID, node string, step int, next string, d time.Duration, err error) {
	if e.hooks.OnNodeLeave == nil {
		return
	}
	e.hooks.OnNodeLeave(ctx, &domain.NodeEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventNodeLeave, RunID: runID},
		Node:      node,
		Step:      step,
		Next:      next,
		Duration:  d,
		Err:       err,
	})
}
