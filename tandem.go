package tandem

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/tandem/internal/logging"
	"github.com/aretw0/tandem/internal/runtime"
	"github.com/aretw0/tandem/pkg/domain"
	"github.com/aretw0/tandem/pkg/ports"
)

// Engine is the high-level entry point for the Tandem library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Engine struct {
	runtime  *runtime.Engine
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	maxSteps int
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMaxSteps bounds the number of agent invocations of a single run.
// Zero disables the limit.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		e.maxSteps = n
	}
}

// New builds the research/chart workflow around the two agents.
// The graph is compiled once; the returned Engine can serve many runs.
func New(research, chart ports.Agent, opts ...Option) (*Engine, error) {
	eng := &Engine{
		maxSteps: runtime.DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(eng)
	}

	// Ensure logger is initialized (so we don't pass nil to runtime)
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	graph, err := BuildGraph(research, chart)
	if err != nil {
		return nil, fmt.Errorf("failed to build workflow graph: %w", err)
	}

	rt, err := runtime.NewEngine(graph,
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
		runtime.WithMaxSteps(eng.maxSteps),
	)
	if err != nil {
		return nil, err
	}
	eng.runtime = rt

	return eng, nil
}

// Run drives the workflow from the researcher until the chart agent stops asking for data.
// It blocks until the run finishes, fails or ctx is cancelled.
func (e *Engine) Run(ctx context.Context, initial domain.Conversation) (domain.Conversation, error) {
	return e.runtime.Run(ctx, initial)
}

// Ask starts a run from a single user request.
func (e *Engine) Ask(ctx context.Context, request string) (domain.Conversation, error) {
	if strings.TrimSpace(request) == "" {
		return domain.Conversation{}, domain.ErrEmptyConversation
	}
	return e.Run(ctx, domain.NewConversation(domain.NewUserMessage(request)))
}

// Graph returns the compiled workflow graph, for visualization or introspection tools.
func (e *Engine) Graph() *domain.Graph {
	return e.runtime.Graph()
}
