package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/tandem/pkg/domain"
)

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer

	// Label decorates author labels (e.g. with terminal colors).
	Label func(string) string

	// Verbose also prints node and tool progress.
	Verbose bool

	mu        sync.Mutex
	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithTextHandlerLabel configures the author label decorator.
func WithTextHandlerLabel(label func(string) string) TextHandlerOption {
	return func(h *TextHandler) {
		h.Label = label
	}
}

// WithTextHandlerVerbose enables progress output.
func WithTextHandlerVerbose(verbose bool) TextHandlerOption {
	return func(h *TextHandler) {
		h.Verbose = verbose
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
		Label:  func(s string) string { return s },
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// initPump starts the goroutine reading lines, so Input can honour ctx
// while a read is blocked.
func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

func (h *TextHandler) pump() {
	defer close(h.inputChan)
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if err != io.EOF {
				h.inputChan <- inputResult{err: err}
			}
			return
		}
	}
}

func (h *TextHandler) Input(ctx context.Context) (string, error) {
	h.initPump()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			h.print("> ")
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			clean, err := SanitizeInput(strings.TrimSpace(res.text))
			if err != nil {
				h.print(fmt.Sprintf("Error: %v. Please try again.\n", err))
				continue
			}
			return clean, nil
		}
	}
}

func (h *TextHandler) Message(ctx context.Context, msg domain.Message) error {
	author := msg.Name
	if author == "" {
		author = string(msg.Role)
	}

	content := msg.Content
	if h.Renderer != nil {
		if rendered, err := h.Renderer(content); err == nil {
			content = rendered
		}
	}

	h.print(fmt.Sprintf("\n%s\n%s\n", h.Label(author), strings.TrimSpace(content)))
	return nil
}

func (h *TextHandler) Progress(ctx context.Context, event any) error {
	if !h.Verbose {
		return nil
	}
	var line string
	switch e := event.(type) {
	case *domain.NodeEvent:
		if e.Type != domain.EventNodeEnter {
			return nil
		}
		line = fmt.Sprintf("[%d] %s is working...", e.Step, e.Node)
	case *domain.ToolEvent:
		switch {
		case e.Type == domain.EventToolCall:
			line = fmt.Sprintf("    %s -> %s", e.Agent, e.ToolName)
		case e.IsError:
			line = fmt.Sprintf("    %s failed after %s", e.ToolName, e.Duration.Round(time.Millisecond))
		default:
			return nil
		}
	default:
		return nil
	}
	h.print(line + "\n")
	return nil
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	h.print(fmt.Sprintf("\n[System] %s\n", msg))
	return nil
}

func (h *TextHandler) print(s string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fmt.Fprint(h.Writer, s)
}
