package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/tandem/internal/logging"
	"github.com/aretw0/tandem/pkg/domain"
)

// StreamManager fans engine events out to SSE subscribers.
// Subscribers of run "" receive the events of every run.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan string]struct{}
	logger      *slog.Logger
}

// NewStreamManager creates an empty manager.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a channel for the events of runID ("" for all runs).
// The returned function unregisters and closes it.
func (sm *StreamManager) Subscribe(runID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 32)
	if _, ok := sm.subscribers[runID]; !ok {
		sm.subscribers[runID] = make(map[chan string]struct{})
	}
	sm.subscribers[runID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			subs := sm.subscribers[runID]
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, runID)
			}
		})
	}
}

// Broadcast sends msg to the subscribers of runID and to the global subscribers.
// Slow clients lose messages instead of blocking the run.
func (sm *StreamManager) Broadcast(runID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	targets := []string{""}
	if runID != "" {
		targets = append(targets, runID)
	}
	for _, target := range targets {
		for ch := range sm.subscribers[target] {
			select {
			case ch <- msg:
			default:
				sm.logger.Warn("SSE: client buffer full, dropping message", domain.KeyRunID, runID)
			}
		}
	}
}

// Hooks returns lifecycle hooks broadcasting every event as JSON.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	send := func(runID string, event any) {
		data, err := json.Marshal(event)
		if err != nil {
			sm.logger.Error("SSE: event encode failed", "err", err)
			return
		}
		sm.Broadcast(runID, string(data))
	}
	return domain.LifecycleHooks{
		OnRunStart:   func(ctx context.Context, e *domain.RunEvent) { send(e.RunID, e) },
		OnRunEnd:     func(ctx context.Context, e *domain.RunEvent) { send(e.RunID, e) },
		OnNodeEnter:  func(ctx context.Context, e *domain.NodeEvent) { send(e.RunID, e) },
		OnNodeLeave:  func(ctx context.Context, e *domain.NodeEvent) { send(e.RunID, e) },
		OnToolCall:   func(ctx context.Context, e *domain.ToolEvent) { send(e.RunID, e) },
		OnToolReturn: func(ctx context.Context, e *domain.ToolEvent) { send(e.RunID, e) },
	}
}

// SubscribeEvents handles the GET /v1/events request (SSE).
// The optional run_id query parameter restricts the stream to one run.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	runID := r.URL.Query().Get("run_id")
	ch, cancel := s.streams.Subscribe(runID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected", domain.KeyRunID, runID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
