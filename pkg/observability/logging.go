package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/tandem/pkg/domain"
)

// LoggingHooks returns lifecycle hooks that write one structured record per event.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *domain.RunEvent) {
			logger.Info("run_start", domain.KeyRunID, e.RunID)
		},
		OnRunEnd: func(ctx context.Context, e *domain.RunEvent) {
			logger.Info("run_end",
				domain.KeyRunID, e.RunID,
				"steps", e.Steps,
				"duration", e.Duration,
				"outcome", Outcome(e.Err),
			)
		},
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.Info("node_enter", domain.KeyRunID, e.RunID, domain.KeyNode, e.Node, domain.KeyStep, e.Step)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			logger.Info("node_leave",
				domain.KeyRunID, e.RunID,
				domain.KeyNode, e.Node,
				domain.KeyStep, e.Step,
				"next", e.Next,
				"duration", e.Duration,
			)
		},
		OnToolCall: func(ctx context.Context, e *domain.ToolEvent) {
			logger.Info("tool_call", "agent", e.Agent, "tool_name", e.ToolName)
		},
		OnToolReturn: func(ctx context.Context, e *domain.ToolEvent) {
			logger.Info("tool_return",
				"agent", e.Agent,
				"tool_name", e.ToolName,
				"is_error", e.IsError,
				"duration", e.Duration,
			)
		},
	}
}
