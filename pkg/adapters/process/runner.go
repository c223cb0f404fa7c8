package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/aretw0/tandem/internal/logging"
	"github.com/aretw0/tandem/pkg/ports"
)

const (
	// DefaultTimeout bounds a single code execution.
	DefaultTimeout = 60 * time.Second

	// DefaultGracePeriod is how long a cancelled process may take to exit after
	// being interrupted before it is killed.
	DefaultGracePeriod = 5 * time.Second
)

// Runner implements ports.CodeExecutor by piping code into a local interpreter process.
// The code is written to the interpreter's stdin; nothing is passed as command flags.
type Runner struct {
	command string
	args    []string
	baseDir string
	env     []string
	timeout time.Duration
	grace   time.Duration
	logger  *slog.Logger
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithInterpreter sets the interpreter command and its arguments.
// The interpreter must read the program from stdin (e.g. "python3 -").
func WithInterpreter(command string, args ...string) RunnerOption {
	return func(r *Runner) {
		r.command = command
		r.args = args
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithEnv adds an environment variable to every execution.
func WithEnv(key, value string) RunnerOption {
	return func(r *Runner) {
		r.env = append(r.env, key+"="+value)
	}
}

// WithTimeout bounds each execution. Zero disables the timeout.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.timeout = d
	}
}

// WithGracePeriod sets how long an interrupted process may take to exit.
func WithGracePeriod(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.grace = d
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a new Python runner.
// Matplotlib is forced onto a non-interactive backend so charts are saved, not shown.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		command: "python3",
		args:    []string{"-"},
		env:     []string{"MPLBACKEND=Agg", "PYTHONUNBUFFERED=1"},
		timeout: DefaultTimeout,
		grace:   DefaultGracePeriod,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Execute runs code and reports its stdout.
// Failures of the code (non-zero exit, timeout) are reported in the result; an error
// is returned only when the interpreter cannot be started at all.
func (r *Runner) Execute(ctx context.Context, code string) (ports.ExecResult, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.command, r.args...)
	cmd.Dir = r.baseDir
	cmd.Env = append(cmd.Environ(), r.env...)
	cmd.Stdin = strings.NewReader(code)

	// Give the process a chance to exit cleanly before being killed.
	cmd.Cancel = func() error {
		if runtime.GOOS == "windows" {
			return cmd.Process.Kill()
		}
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = r.grace

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	r.logger.Debug("code executed", "command", r.command, "duration", time.Since(start), "err", err)

	result := ports.ExecResult{Output: stdout.String()}
	if err == nil {
		return result, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		result.ExitCode = -1
		result.Error = fmt.Sprintf("execution interrupted: %v", ctxErr)
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		result.Error = strings.TrimSpace(stderr.String())
		if result.Error == "" {
			result.Error = err.Error()
		}
		return result, nil
	}

	return ports.ExecResult{}, fmt.Errorf("failed to start %q: %w", r.command, err)
}
