// Package cli wires configuration into a ready-to-run engine for the tandem binary.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/tandem"
	"github.com/aretw0/tandem/internal/config"
	"github.com/aretw0/tandem/internal/logging"
	"github.com/aretw0/tandem/pkg/adapters/memory"
	"github.com/aretw0/tandem/pkg/adapters/openai"
	"github.com/aretw0/tandem/pkg/adapters/process"
	"github.com/aretw0/tandem/pkg/adapters/redis"
	"github.com/aretw0/tandem/pkg/adapters/tavily"
	"github.com/aretw0/tandem/pkg/agents"
	"github.com/aretw0/tandem/pkg/domain"
	"github.com/aretw0/tandem/pkg/history"
	"github.com/aretw0/tandem/pkg/middleware"
	"github.com/aretw0/tandem/pkg/observability"
	"github.com/aretw0/tandem/pkg/ports"
	"github.com/aretw0/tandem/pkg/runner"
)

var (
	// ErrMissingModelKey is returned when no chat model credentials are configured.
	ErrMissingModelKey = fmt.Errorf("model api key is not set (use model.api_key or $%s)", config.EnvOpenAIKey)
	// ErrMissingSearchKey is returned when no search credentials are configured.
	ErrMissingSearchKey = fmt.Errorf("search api key is not set (use search.api_key or $%s)", config.EnvTavilyKey)
)

// Options controls how the engine is assembled.
type Options struct {
	Config *config.Config
	Logger *slog.Logger

	// Hooks are merged after the metrics and logging hooks (e.g. runner progress).
	Hooks domain.LifecycleHooks

	// Confirm, when set and code.confirm is enabled, asks through this handler
	// before generated code runs.
	Confirm runner.IOHandler

	// Capability overrides; nil means build from Config.
	Model    ports.ChatModel
	Searcher ports.Searcher
	Executor ports.CodeExecutor
}

// Components is a fully wired engine plus the resources it holds.
type Components struct {
	Engine  *tandem.Engine
	Metrics *observability.Metrics
	Logger  *slog.Logger

	// Runs records every run made through Asker; nil when history is disabled.
	Runs *history.Recorder

	closers []func() error
}

// Close releases external connections (e.g. the redis cache).
func (c *Components) Close() error {
	var errs []error
	for _, fn := range c.closers {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Asker returns the engine to run requests through: the recorder when
// history is enabled, the bare engine otherwise.
func (c *Components) Asker() history.Engine {
	if c.Runs != nil {
		return c.Runs
	}
	return c.Engine
}

// NewLogger builds the process logger from the log section of the configuration.
func NewLogger(cfg config.LogConfig) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return logging.New(level, logging.Format(cfg.Format)), nil
}

// Build assembles capabilities, middleware, agents, metrics and the engine.
func Build(ctx context.Context, opts Options) (*Components, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	c := &Components{
		Metrics: observability.NewMetrics(),
		Logger:  logger,
	}

	hooks := c.Metrics.Hooks()
	if logger.Enabled(ctx, slog.LevelDebug) {
		hooks = hooks.Merge(observability.LoggingHooks(logger))
	}
	hooks = hooks.Merge(opts.Hooks)

	model, err := buildModel(cfg.Model, opts.Model, logger)
	if err != nil {
		return nil, err
	}
	searcher, err := c.buildSearcher(ctx, cfg.Search, opts.Searcher, logger)
	if err != nil {
		return nil, err
	}
	executor := buildExecutor(cfg.Code, opts.Executor, opts.Confirm, logger)

	agentOpts := []agents.Option{
		agents.WithLogger(logger),
		agents.WithLifecycleHooks(hooks),
		agents.WithMaxToolRounds(cfg.Run.MaxToolRounds),
		agents.WithUsageHook(c.Metrics.RecordUsage),
	}
	researcher := agents.NewResearcher(model, searcher, agentOpts...)
	chart := agents.NewChartGenerator(model, executor, agentOpts...)

	engine, err := tandem.New(researcher, chart,
		tandem.WithLogger(logger),
		tandem.WithLifecycleHooks(hooks),
		tandem.WithMaxSteps(cfg.Run.MaxSteps),
	)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.Engine = engine

	if store := c.buildRunStore(cfg.History); store != nil {
		c.Runs = history.NewRecorder(engine, store, history.WithLogger(logger))
	}
	return c, nil
}

func (c *Components) buildRunStore(cfg config.HistoryConfig) ports.RunStore {
	if cfg.Backend != config.HistoryMemory {
		return nil
	}
	c.Logger.Debug("run history enabled", "backend", cfg.Backend, "max_runs", cfg.MaxRuns)
	return memory.NewStore(cfg.MaxRuns)
}

func buildModel(cfg config.ModelConfig, override ports.ChatModel, logger *slog.Logger) (ports.ChatModel, error) {
	if override != nil {
		return override, nil
	}
	if cfg.APIKey == "" {
		return nil, ErrMissingModelKey
	}
	return openai.New(cfg.APIKey,
		openai.WithModel(cfg.Name),
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithMaxTries(cfg.MaxTries),
		openai.WithLogger(logger),
	), nil
}

func (c *Components) buildSearcher(ctx context.Context, cfg config.SearchConfig, override ports.Searcher, logger *slog.Logger) (ports.Searcher, error) {
	base := override
	if base == nil {
		if cfg.APIKey == "" {
			return nil, ErrMissingSearchKey
		}
		opts := []tavily.Option{
			tavily.WithMaxResults(cfg.MaxResults),
			tavily.WithSearchDepth(cfg.Depth),
			tavily.WithLogger(logger),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, tavily.WithBaseURL(cfg.BaseURL))
		}
		base = tavily.New(cfg.APIKey, opts...)
	}

	var cache ports.SearchCache
	switch cfg.Cache {
	case config.CacheMemory:
		cache = memory.NewCache(cfg.TTL)
	case config.CacheRedis:
		rc, err := redis.NewFromURL(cfg.RedisURL, redis.WithTTL(cfg.TTL))
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		if err := rc.Ping(ctx); err != nil {
			_ = rc.Close()
			return nil, fmt.Errorf("redis cache unavailable: %w", err)
		}
		c.closers = append(c.closers, rc.Close)
		cache = rc
	default:
		return base, nil
	}

	logger.Debug("search cache enabled", "backend", cfg.Cache, "ttl", cfg.TTL)
	return middleware.WrapSearcher(base, middleware.NewCacheMiddleware(cache, logger)), nil
}

func buildExecutor(cfg config.CodeConfig, override ports.CodeExecutor, confirm runner.IOHandler, logger *slog.Logger) ports.CodeExecutor {
	base := override
	if base == nil {
		opts := []process.RunnerOption{
			process.WithInterpreter(cfg.Interpreter, cfg.Args...),
			process.WithTimeout(cfg.Timeout),
			process.WithLogger(logger),
		}
		if cfg.Dir != "" {
			opts = append(opts, process.WithBaseDir(cfg.Dir))
		}
		base = process.NewRunner(opts...)
	}

	// Confirmation is outermost; masking runs before truncation so a secret
	// is never cut in half and left unmatched.
	var mws []middleware.ExecutorMiddleware
	if cfg.Confirm && confirm != nil {
		mws = append(mws, runner.ConfirmationMiddleware(confirm))
	}
	if cfg.MaxOutputLines > 0 || cfg.MaxOutputBytes > 0 {
		mws = append(mws, middleware.NewOutputLimitMiddleware(cfg.MaxOutputLines, cfg.MaxOutputBytes))
	}
	if cfg.MaskSecrets {
		mws = append(mws, middleware.NewMaskMiddleware(middleware.DefaultSecretPatterns))
	}
	return middleware.WrapExecutor(base, mws...)
}
