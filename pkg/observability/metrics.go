package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/tandem/pkg/domain"
	"github.com/aretw0/tandem/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors fed by the engine hooks.
// All collectors live in a private registry so several engines (or tests) don't collide.
type Metrics struct {
	registry *prometheus.Registry

	runs         *prometheus.CounterVec
	runDuration  prometheus.Histogram
	runSteps     prometheus.Histogram
	nodeVisits   *prometheus.CounterVec
	nodeDuration *prometheus.HistogramVec
	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	tokens       *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tandem_runs_total",
				Help: "Total number of workflow runs by outcome",
			},
			[]string{"outcome"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tandem_run_duration_seconds",
				Help:    "Duration of workflow runs",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
		runSteps: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tandem_run_steps",
				Help:    "Number of agent invocations per run",
				Buckets: prometheus.LinearBuckets(2, 2, 12),
			},
		),
		nodeVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tandem_node_visits_total",
				Help: "Total number of node visits",
			},
			[]string{"node"},
		),
		nodeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tandem_node_duration_seconds",
				Help:    "Duration of agent invocations",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
			},
			[]string{"node"},
		),
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tandem_tool_calls_total",
				Help: "Total number of tool calls by result",
			},
			[]string{"tool", "result"},
		),
		toolDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "tandem_tool_duration_seconds",
				Help: "Duration of tool executions",
			},
			[]string{"tool"},
		),
		tokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tandem_tokens_total",
				Help: "Model tokens consumed per agent and direction",
			},
			[]string{"agent", "direction"},
		),
	}

	m.registry.MustRegister(
		m.runs, m.runDuration, m.runSteps,
		m.nodeVisits, m.nodeDuration,
		m.toolCalls, m.toolDuration,
		m.tokens,
	)
	return m
}

// Registry exposes the underlying registry, e.g. to add process collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks recording into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunEnd: func(ctx context.Context, e *domain.RunEvent) {
			m.runs.WithLabelValues(Outcome(e.Err)).Inc()
			m.runDuration.Observe(e.Duration.Seconds())
			m.runSteps.Observe(float64(e.Steps))
		},
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			m.nodeVisits.WithLabelValues(e.Node).Inc()
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			m.nodeDuration.WithLabelValues(e.Node).Observe(e.Duration.Seconds())
		},
		OnToolReturn: func(ctx context.Context, e *domain.ToolEvent) {
			result := "ok"
			if e.IsError {
				result = "error"
			}
			m.toolCalls.WithLabelValues(e.ToolName, result).Inc()
			m.toolDuration.WithLabelValues(e.ToolName).Observe(e.Duration.Seconds())
		},
	}
}

// RecordUsage adds the token usage of one model call. Its signature matches agents.UsageHook.
func (m *Metrics) RecordUsage(ctx context.Context, agent string, usage ports.Usage) {
	m.tokens.WithLabelValues(agent, "input").Add(float64(usage.InputTokens))
	m.tokens.WithLabelValues(agent, "output").Add(float64(usage.OutputTokens))
}

// NodeVisits exposes the node visit counter.
func (m *Metrics) NodeVisits() *prometheus.CounterVec { return m.nodeVisits }

// ToolCalls exposes the tool call counter.
func (m *Metrics) ToolCalls() *prometheus.CounterVec { return m.toolCalls }

// Runs exposes the run counter.
func (m *Metrics) Runs() *prometheus.CounterVec { return m.runs }

// Tokens exposes the token counter.
func (m *Metrics) Tokens() *prometheus.CounterVec { return m.tokens }
