package cli

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/tandem/internal/config"
	"github.com/aretw0/tandem/pkg/agents"
	"github.com/aretw0/tandem/pkg/domain"
	"github.com/aretw0/tandem/pkg/ports"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cyclingModel replays a fixed script, starting over when it runs out.
type cyclingModel struct {
	mu     sync.Mutex
	script []ports.ChatResponse
	calls  int
}

func (m *cyclingModel) Complete(ctx context.Context, req ports.ChatRequest) (ports.ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	resp := m.script[m.calls%len(m.script)]
	m.calls++
	return resp, nil
}

func researchThenChart() *cyclingModel {
	return &cyclingModel{script: []ports.ChatResponse{
		{ToolCalls: []domain.ToolCall{{ID: "c1", Name: agents.SearchToolName, Arguments: `{"query":"UK GDP"}`}}, Usage: ports.Usage{InputTokens: 10, OutputTokens: 2}},
		{Content: "UK GDP 2021: 3.1T", Usage: ports.Usage{InputTokens: 20, OutputTokens: 5}},
		{ToolCalls: []domain.ToolCall{{ID: "c2", Name: agents.PythonToolName, Arguments: `{"code":"print(1)"}`}}},
		{Content: "FINAL ANSWER: chart saved"},
	}}
}

type countingSearcher struct {
	calls int
}

func (s *countingSearcher) Search(ctx context.Context, query string) ([]ports.SearchResult, error) {
	s.calls++
	return []ports.SearchResult{{Title: "ONS", URL: "https://ons.gov.uk", Content: "3.1T"}}, nil
}

type stubExecutor struct {
	result ports.ExecResult
	codes  []string
}

func (e *stubExecutor) Execute(ctx context.Context, code string) (ports.ExecResult, error) {
	e.codes = append(e.codes, code)
	return e.result, nil
}

func TestBuild_EndToEnd(t *testing.T) {
	searcher := &countingSearcher{}
	executor := &stubExecutor{result: ports.ExecResult{Output: "1\n"}}

	c, err := Build(context.Background(), Options{
		Config:   config.Default(),
		Model:    researchThenChart(),
		Searcher: searcher,
		Executor: executor,
	})
	require.NoError(t, err)
	defer c.Close()

	for i := 0; i < 2; i++ {
		conv, err := c.Engine.Ask(context.Background(), "Fetch the UK's GDP and draw a chart")
		require.NoError(t, err)
		require.Equal(t, 3, conv.Len())
		assert.Equal(t, agents.ChartName, conv.At(2).Name)
	}

	assert.Equal(t, 1, searcher.calls, "second search must be served by the memory cache")
	assert.Len(t, executor.codes, 2)

	m := c.Metrics
	assert.Equal(t, 2.0, testutil.ToFloat64(m.NodeVisits().WithLabelValues(agents.ResearcherName)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Runs().WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ToolCalls().WithLabelValues(agents.SearchToolName, "ok")))
	assert.Equal(t, 60.0, testutil.ToFloat64(m.Tokens().WithLabelValues(agents.ResearcherName, "input")))
}

func TestBuild_StepLimitFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Run.MaxSteps = 1

	c, err := Build(context.Background(), Options{
		Config:   cfg,
		Model:    researchThenChart(),
		Searcher: &countingSearcher{},
		Executor: &stubExecutor{},
	})
	require.NoError(t, err)

	_, err = c.Engine.Ask(context.Background(), "UK GDP")
	assert.ErrorIs(t, err, domain.ErrStepLimitExceeded)
}

func TestBuild_MissingCredentials(t *testing.T) {
	cfg := config.Default()

	_, err := Build(context.Background(), Options{Config: cfg})
	assert.ErrorIs(t, err, ErrMissingModelKey)

	cfg.Model.APIKey = "sk-test"
	_, err = Build(context.Background(), Options{Config: cfg})
	assert.ErrorIs(t, err, ErrMissingSearchKey)

	cfg.Search.APIKey = "tvly-test"
	c, err := Build(context.Background(), Options{Config: cfg})
	require.NoError(t, err)
	assert.NotNil(t, c.Engine)
}

func TestBuild_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Search.Cache = config.CacheRedis
	cfg.Search.RedisURL = "redis://" + mr.Addr()

	searcher := &countingSearcher{}
	c, err := Build(context.Background(), Options{
		Config:   cfg,
		Model:    researchThenChart(),
		Searcher: searcher,
		Executor: &stubExecutor{},
	})
	require.NoError(t, err)
	defer c.Close()

	for i := 0; i < 2; i++ {
		_, err := c.Engine.Ask(context.Background(), "UK GDP")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, searcher.calls)
	assert.Len(t, mr.Keys(), 1)
}

func TestBuild_RedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := config.Default()
	cfg.Search.Cache = config.CacheRedis
	cfg.Search.RedisURL = "redis://" + addr

	_, err := Build(context.Background(), Options{Config: cfg, Model: researchThenChart(), Searcher: &countingSearcher{}})
	assert.ErrorContains(t, err, "redis cache unavailable")
}

func TestBuildExecutor_Middleware(t *testing.T) {
	cfg := config.Default().Code
	cfg.MaxOutputLines = 2
	base := &stubExecutor{result: ports.ExecResult{Output: "key=sk-abcdefghijklmnopqrstuv\nline2\nline3\n"}}

	exec := buildExecutor(cfg, base, nil, nil)
	res, err := exec.Execute(context.Background(), "print(1)")
	require.NoError(t, err)

	assert.NotContains(t, res.Output, "sk-abcdefghijklmnopqrstuv")
	assert.Contains(t, res.Output, "***")
	assert.Contains(t, res.Output, "truncated")
}

func TestBuild_RecordsRuns(t *testing.T) {
	c, err := Build(context.Background(), Options{
		Config:   config.Default(),
		Model:    researchThenChart(),
		Searcher: &countingSearcher{},
		Executor: &stubExecutor{},
	})
	require.NoError(t, err)
	defer c.Close()
	require.NotNil(t, c.Runs)

	ctx := domain.WithRunID(context.Background(), "run-1")
	conv, err := c.Asker().Ask(ctx, "UK GDP")
	require.NoError(t, err)

	rec, err := c.Runs.Store().Load(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "UK GDP", rec.Request)
	assert.Equal(t, conv.Messages(), rec.Messages)
	assert.Equal(t, "ok", rec.Outcome)
}

func TestBuild_HistoryBound(t *testing.T) {
	cfg := config.Default()
	cfg.History.MaxRuns = 1

	c, err := Build(context.Background(), Options{
		Config:   cfg,
		Model:    researchThenChart(),
		Searcher: &countingSearcher{},
		Executor: &stubExecutor{},
	})
	require.NoError(t, err)
	defer c.Close()

	for _, id := range []string{"r1", "r2"} {
		_, err := c.Asker().Ask(domain.WithRunID(context.Background(), id), "UK GDP")
		require.NoError(t, err)
	}
	ids, err := c.Runs.Store().List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"r2"}, ids)
}

func TestBuild_HistoryDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.History.Backend = config.HistoryNone

	c, err := Build(context.Background(), Options{
		Config:   cfg,
		Model:    researchThenChart(),
		Searcher: &countingSearcher{},
		Executor: &stubExecutor{},
	})
	require.NoError(t, err)
	defer c.Close()

	assert.Nil(t, c.Runs)
	assert.Equal(t, c.Engine, c.Asker())
}
