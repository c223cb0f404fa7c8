package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/tandem/pkg/domain"
)

// Record types written by JSONHandler, besides the domain event types.
const (
	RecordMessage = "message"
	RecordSystem  = "system"
)

// Record is one line of JSONHandler output.
type Record struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Message   *domain.Message `json:"message,omitempty"`
	Text      string          `json:"text,omitempty"`
	Event     any             `json:"event,omitempty"`
}

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
type JSONHandler struct {
	Reader *bufio.Reader
	Writer io.Writer

	mu      sync.Mutex
	encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		encoder: json.NewEncoder(w),
	}
}

// Input reads one request per line. A line may be a JSON string, an object
// with a "request" field, or plain text.
func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		line, err := h.Reader.ReadString('\n')
		text := strings.TrimSpace(line)
		if text == "" {
			if err != nil {
				return "", err
			}
			continue
		}
		return SanitizeInput(decodeRequest(text))
	}
}

func decodeRequest(text string) string {
	var s string
	if err := json.Unmarshal([]byte(text), &s); err == nil {
		return s
	}
	var obj struct {
		Request string `json:"request"`
	}
	if err := json.Unmarshal([]byte(text), &obj); err == nil && obj.Request != "" {
		return obj.Request
	}
	return text
}

func (h *JSONHandler) Message(ctx context.Context, msg domain.Message) error {
	return h.write(Record{Type: RecordMessage, Timestamp: time.Now(), Message: &msg})
}

func (h *JSONHandler) Progress(ctx context.Context, event any) error {
	var typ domain.EventType
	switch e := event.(type) {
	case *domain.RunEvent:
		typ = e.Type
	case *domain.NodeEvent:
		typ = e.Type
	case *domain.ToolEvent:
		typ = e.Type
	default:
		return nil
	}
	return h.write(Record{Type: string(typ), Timestamp: time.Now(), Event: event})
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.write(Record{Type: RecordSystem, Timestamp: time.Now(), Text: msg})
}

func (h *JSONHandler) write(rec Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.encoder.Encode(rec)
}
