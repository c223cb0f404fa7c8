package agents

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/tandem/pkg/domain"
	"github.com/aretw0/tandem/pkg/ports"
)

// PythonToolName is the name the model uses to call the code execution tool.
const PythonToolName = "python_repl"

// PythonArgs are the arguments of the code execution tool.
type PythonArgs struct {
	Code string `json:"code" mapstructure:"code" jsonschema:"required" jsonschema_description:"The python code to execute to generate your chart."`
}

// PythonTool exposes a ports.CodeExecutor to the model.
// It never fails the invocation: executor errors and failing code are both
// reported back to the model as text so it can fix its code and retry.
type PythonTool struct {
	executor ports.CodeExecutor
}

// NewPythonTool wraps a code executor.
func NewPythonTool(e ports.CodeExecutor) *PythonTool {
	return &PythonTool{executor: e}
}

func (t *PythonTool) Spec() domain.Tool {
	return domain.Tool{
		Name:        PythonToolName,
		Description: "Use this to execute python code. If you want to see the output of a value, you should print it out with `print(...)`. This is visible to the user.",
		Parameters:  SchemaFor[PythonArgs](),
	}
}

func (t *PythonTool) Call(ctx context.Context, arguments string) (string, error) {
	args, err := DecodeArgs[PythonArgs](arguments)
	if err != nil {
		return failedToExecute(err), nil
	}

	res, err := t.executor.Execute(ctx, args.Code)
	if err != nil {
		return failedToExecute(&domain.CapabilityError{Capability: "code", Err: err}), nil
	}
	if res.Failed() {
		cause := res.Error
		if cause == "" {
			cause = fmt.Sprintf("exit status %d", res.ExitCode)
		}
		if res.Output != "" {
			cause = res.Output + "\n" + cause
		}
		return failedToExecute(errors.New(cause)), nil
	}

	return fmt.Sprintf("Successfully executed:\n```python\n%s\n```\nStdout: %s", args.Code, res.Output), nil
}

func failedToExecute(err error) string {
	return fmt.Sprintf("Failed to execute. Error: %v", err)
}
