package observability

import (
	"context"
	"errors"

	"github.com/aretw0/tandem/pkg/domain"
)

// Run outcomes, used as metric labels and in logs.
const (
	OutcomeOK           = "ok"
	OutcomeAgentError   = "agent_error"
	OutcomeRoutingError = "routing_error"
	OutcomeStepLimit    = "step_limit"
	OutcomeCancelled    = "cancelled"
	OutcomeError        = "error"
)

// Outcome classifies the error returned by a run.
func Outcome(err error) string {
	var (
		agentErr *domain.AgentExecutionError
		routeErr *domain.RoutingError
	)
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCancelled
	case errors.As(err, &agentErr):
		return OutcomeAgentError
	case errors.As(err, &routeErr):
		return OutcomeRoutingError
	case errors.Is(err, domain.ErrStepLimitExceeded):
		return OutcomeStepLimit
	}
	return OutcomeError
}
