package runner

import (
	"context"
	"io"
	"os"

	"github.com/aretw0/tandem/pkg/domain"
	"golang.org/x/term"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Input reads the next request. io.EOF ends the session.
	Input(ctx context.Context) (string, error)

	// Message presents one message of a finished (or failed) run.
	Message(ctx context.Context, msg domain.Message) error

	// Progress notifies the handler of an engine event
	// (*domain.RunEvent, *domain.NodeEvent or *domain.ToolEvent).
	// It is called synchronously from the run and must not block.
	Progress(ctx context.Context, event any) error

	// SystemOutput presents a meta-message to the user (errors, status updates).
	// This is distinct from conversation content.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer is a function that transforms the content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// IsTerminal reports whether w is attached to an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
