package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/tandem/internal/logging"
	"github.com/aretw0/tandem/pkg/domain"
)

// Asker runs the workflow for one request. *tandem.Engine satisfies it.
type Asker interface {
	Ask(ctx context.Context, request string) (domain.Conversation, error)
}

// Runner handles the request loop of the Tandem engine using provided IO.
// It uses an IOHandler strategy to abstract the interaction mode (Text vs JSON).
type Runner struct {
	handler IOHandler
	logger  *slog.Logger

	// showRequest echoes the user request back in the transcript.
	showRequest bool
}

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithShowRequest echoes the request as the first transcript message.
func WithShowRequest(show bool) Option {
	return func(r *Runner) {
		r.showRequest = show
	}
}

// New creates a Runner writing through handler.
func New(handler IOHandler, opts ...Option) *Runner {
	r := &Runner{
		handler: handler,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handler returns the IO strategy of the runner.
func (r *Runner) Handler() IOHandler {
	return r.handler
}

// Hooks returns lifecycle hooks forwarding engine events to the handler as progress.
func (r *Runner) Hooks() domain.LifecycleHooks {
	forward := func(ctx context.Context, event any) {
		if err := r.handler.Progress(ctx, event); err != nil {
			r.logger.Debug("progress output failed", "err", err)
		}
	}
	return domain.LifecycleHooks{
		OnRunStart:   func(ctx context.Context, e *domain.RunEvent) { forward(ctx, e) },
		OnRunEnd:     func(ctx context.Context, e *domain.RunEvent) { forward(ctx, e) },
		OnNodeEnter:  func(ctx context.Context, e *domain.NodeEvent) { forward(ctx, e) },
		OnNodeLeave:  func(ctx context.Context, e *domain.NodeEvent) { forward(ctx, e) },
		OnToolCall:   func(ctx context.Context, e *domain.ToolEvent) { forward(ctx, e) },
		OnToolReturn: func(ctx context.Context, e *domain.ToolEvent) { forward(ctx, e) },
	}
}

// RunOnce sanitizes request, runs it and writes the transcript.
// On failure the partial transcript (if any) is written before the error is reported
// and returned.
func (r *Runner) RunOnce(ctx context.Context, engine Asker, request string) (domain.Conversation, error) {
	clean, err := SanitizeInput(strings.TrimSpace(request))
	if err != nil {
		return domain.Conversation{}, err
	}

	conv, runErr := engine.Ask(ctx, clean)
	if runErr != nil {
		if partial, ok := domain.PartialOf(runErr); ok {
			if err := r.writeTranscript(ctx, partial); err != nil {
				return domain.Conversation{}, err
			}
		}
		if err := r.handler.SystemOutput(ctx, fmt.Sprintf("run failed: %v", runErr)); err != nil {
			r.logger.Debug("system output failed", "err", err)
		}
		return domain.Conversation{}, runErr
	}

	if err := r.writeTranscript(ctx, conv); err != nil {
		return conv, err
	}
	return conv, nil
}

// Loop reads requests until EOF, "exit" or "quit", running each one.
// Failed runs are reported and the loop continues; cancellation of ctx stops it.
func (r *Runner) Loop(ctx context.Context, engine Asker) error {
	for {
		request, err := r.handler.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, ErrInputTooLarge) || errors.Is(err, ErrInvalidUTF8) {
				_ = r.handler.SystemOutput(ctx, err.Error())
				continue
			}
			return fmt.Errorf("input error: %w", err)
		}

		switch strings.TrimSpace(request) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		if _, err := r.RunOnce(ctx, engine, request); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logger.Warn("run failed", "err", err)
		}
	}
}

func (r *Runner) writeTranscript(ctx context.Context, conv domain.Conversation) error {
	for i, msg := range conv.Messages() {
		if i == 0 && !r.showRequest {
			continue
		}
		if err := r.handler.Message(ctx, msg); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}
	return nil
}
