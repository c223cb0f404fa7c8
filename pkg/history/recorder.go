package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/tandem/internal/logging"
	"github.com/aretw0/tandem/pkg/domain"
	"github.com/aretw0/tandem/pkg/observability"
	"github.com/aretw0/tandem/pkg/ports"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Engine is the part of *tandem.Engine the recorder wraps.
type Engine interface {
	Ask(ctx context.Context, request string) (domain.Conversation, error)
	Graph() *domain.Graph
}

// Recorder runs requests through an engine and stores a RunRecord for each.
// It satisfies Engine itself.
type Recorder struct {
	engine Engine
	store  ports.RunStore
	logger *slog.Logger
	now    func() time.Time
}

// Option configures the Recorder.
type Option func(*Recorder)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock overrides time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

// NewRecorder wraps engine so that every Ask is saved to store.
func NewRecorder(engine Engine, store ports.RunStore, opts ...Option) *Recorder {
	r := &Recorder{
		engine: engine,
		store:  store,
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Store returns the underlying run store.
func (r *Recorder) Store() ports.RunStore {
	return r.store
}

// Graph returns the graph of the wrapped engine.
func (r *Recorder) Graph() *domain.Graph {
	return r.engine.Graph()
}

// Ask runs the request and records it under the run ID carried by ctx,
// allocating one when ctx has none.
func (r *Recorder) Ask(ctx context.Context, request string) (domain.Conversation, error) {
	runID := domain.RunIDFrom(ctx)
	if runID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return domain.Conversation{}, fmt.Errorf("failed to allocate run id: %w", err)
		}
		runID = id
		ctx = domain.WithRunID(ctx, runID)
	}

	rec := ports.RunRecord{
		ID:        runID,
		Request:   request,
		StartedAt: r.now(),
	}

	conv, err := r.engine.Ask(ctx, request)

	rec.FinishedAt = r.now()
	rec.Outcome = observability.Outcome(err)
	if err == nil {
		rec.Messages = conv.Messages()
	} else {
		rec.Error = err.Error()
		rec.Messages = []domain.Message{}
		if partial, ok := domain.PartialOf(err); ok {
			rec.Messages = partial.Messages()
		}
	}

	// The run may have been cancelled; the record is still written.
	if serr := r.store.Save(context.WithoutCancel(ctx), rec); serr != nil {
		r.logger.Warn("failed to record run", domain.KeyRunID, runID, "err", serr)
	}
	return conv, err
}

// Summary is one line of a run listing.
type Summary struct {
	ID        string        `json:"id"`
	Request   string        `json:"request"`
	Outcome   string        `json:"outcome"`
	Messages  int           `json:"messages"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
}

// Summarize loads every stored run and returns their summaries in the store's order.
// Runs that vanish between List and Load (e.g. expired) are skipped.
func Summarize(ctx context.Context, store ports.RunStore) ([]Summary, error) {
	ids, err := store.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Summary, 0, len(ids))
	for _, id := range ids {
		rec, err := store.Load(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrRunNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, Summary{
			ID:        rec.ID,
			Request:   rec.Request,
			Outcome:   rec.Outcome,
			Messages:  len(rec.Messages),
			StartedAt: rec.StartedAt,
			Duration:  rec.Duration(),
		})
	}
	return out, nil
}
