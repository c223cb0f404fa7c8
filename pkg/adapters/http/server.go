// Package http exposes the Tandem engine over a small JSON API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/tandem"
	"github.com/aretw0/tandem/internal/logging"
	"github.com/aretw0/tandem/internal/presentation/graph"
	"github.com/aretw0/tandem/pkg/domain"
	"github.com/aretw0/tandem/pkg/history"
	"github.com/aretw0/tandem/pkg/ports"
	"github.com/aretw0/tandem/pkg/runner"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// DefaultRunTimeout bounds a single POST /v1/runs request.
const DefaultRunTimeout = 10 * time.Minute

// Engine is the part of *tandem.Engine the server needs.
type Engine interface {
	Ask(ctx context.Context, request string) (domain.Conversation, error)
	Graph() *domain.Graph
}

// Server serves the HTTP API.
type Server struct {
	engine  Engine
	streams *StreamManager
	runs    ports.RunStore
	metrics http.Handler
	logger  *slog.Logger
	timeout time.Duration
}

// Option configures the Server.
type Option func(*Server)

// WithStreams attaches the stream manager fed by the engine hooks, enabling GET /v1/events.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.streams = sm
	}
}

// WithHistory enables the run history routes backed by store.
func WithHistory(store ports.RunStore) Option {
	return func(s *Server) {
		s.runs = store
	}
}

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRunTimeout bounds each run started over HTTP. Zero disables the bound.
func WithRunTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.timeout = d
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		engine:  engine,
		logger:  logging.NewNop(),
		timeout: DefaultRunTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/healthz", s.GetHealth)
	r.Get("/v1/info", s.GetInfo)
	r.Get("/v1/graph", s.GetGraph)
	r.Post("/v1/runs", s.CreateRun)
	if s.streams != nil {
		r.Get("/v1/events", s.SubscribeEvents)
	}
	if s.runs != nil {
		r.Get("/v1/runs", s.ListRuns)
		r.Get("/v1/runs/{runID}", s.GetRun)
		r.Get("/v1/runs/{runID}/graph", s.GetRunGraph)
	}
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RunRequest is the body of POST /v1/runs.
type RunRequest struct {
	Request string `json:"request"`
}

// RunResponse is returned by POST /v1/runs, on success and on failure.
type RunResponse struct {
	RunID    string           `json:"run_id"`
	Messages []domain.Message `json:"messages"`
	Final    *domain.Message  `json:"final,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// CreateRun handles the POST /v1/runs request.
func (s *Server) CreateRun(w http.ResponseWriter, r *http.Request) {
	var body RunRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		s.logger.Warn("CreateRun: invalid request body", "err", err)
		return
	}
	request, err := runner.SanitizeInput(strings.TrimSpace(body.Request))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if request == "" {
		s.writeError(w, http.StatusBadRequest, "request is required")
		return
	}

	runID, err := gonanoid.New()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to allocate run id")
		return
	}

	ctx := domain.WithRunID(r.Context(), runID)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	conv, err := s.engine.Ask(ctx, request)
	if err != nil {
		status := statusFor(err)
		resp := RunResponse{RunID: runID, Messages: []domain.Message{}, Error: err.Error()}
		if partial, ok := domain.PartialOf(err); ok {
			resp.Messages = partial.Messages()
		}
		s.logger.Warn("CreateRun: run failed", domain.KeyRunID, runID, "status", status, "err", err)
		s.writeJSON(w, status, resp)
		return
	}

	resp := RunResponse{RunID: runID, Messages: conv.Messages()}
	if last, ok := conv.Last(); ok {
		resp.Final = &last
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// statusFor maps run errors to HTTP status codes.
func statusFor(err error) int {
	var (
		agentErr *domain.AgentExecutionError
		routeErr *domain.RoutingError
	)
	switch {
	case errors.Is(err, domain.ErrEmptyConversation):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &agentErr):
		return http.StatusBadGateway
	case errors.As(err, &routeErr), errors.Is(err, domain.ErrStepLimitExceeded):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// GetGraph handles the GET /v1/graph request with a Mermaid flowchart.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(graph.GenerateMermaid(s.engine.Graph(), nil)))
}

// ListRuns handles the GET /v1/runs request.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	summaries, err := history.Summarize(r.Context(), s.runs)
	if err != nil {
		s.logger.Error("ListRuns: store failed", "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"runs": summaries})
}

// GetRun handles the GET /v1/runs/{runID} request.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

// GetRunGraph handles the GET /v1/runs/{runID}/graph request: the workflow
// with the nodes that spoke during the run highlighted.
func (s *Server) GetRunGraph(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	g := s.engine.Graph()
	overlay := graph.OverlayFromConversation(g, domain.NewConversation(rec.Messages...))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(graph.GenerateMermaid(g, overlay)))
}

func (s *Server) loadRun(w http.ResponseWriter, r *http.Request) (ports.RunRecord, bool) {
	runID := chi.URLParam(r, "runID")
	rec, err := s.runs.Load(r.Context(), runID)
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			s.writeError(w, http.StatusNotFound, "run not found")
			return ports.RunRecord{}, false
		}
		s.logger.Error("GetRun: store failed", domain.KeyRunID, runID, "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load run")
		return ports.RunRecord{}, false
	}
	return rec, true
}

// GetHealth handles the GET /healthz request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /v1/info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "tandem-http",
		"version": strings.TrimSpace(tandem.Version),
	})
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
