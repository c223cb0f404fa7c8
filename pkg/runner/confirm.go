package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/tandem/pkg/middleware"
	"github.com/aretw0/tandem/pkg/ports"
)

// DeniedMessage is reported to the agent when the user refuses to run its code.
const DeniedMessage = "User denied execution by policy"

// ConfirmationMiddleware prompts the user via the provided handler before any
// generated code is executed. Anything but "y" or "yes" denies the execution,
// which the agent sees as a failed run of its code.
func ConfirmationMiddleware(handler IOHandler) middleware.ExecutorMiddleware {
	return func(next ports.CodeExecutor) ports.CodeExecutor {
		return confirmingExecutor{handler: handler, next: next}
	}
}

type confirmingExecutor struct {
	handler IOHandler
	next    ports.CodeExecutor
}

func (c confirmingExecutor) Execute(ctx context.Context, code string) (ports.ExecResult, error) {
	prompt := fmt.Sprintf("The chart agent wants to run:\n```python\n%s\n```\nAllow execution? [y/N]", code)
	if err := c.handler.SystemOutput(ctx, prompt); err != nil {
		return ports.ExecResult{}, err
	}

	input, err := c.handler.Input(ctx)
	if err != nil {
		return ports.ExecResult{}, fmt.Errorf("confirmation failed: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return c.next.Execute(ctx, code)
	}
	return ports.ExecResult{Error: DeniedMessage, ExitCode: 1}, nil
}
