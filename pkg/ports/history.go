package ports

import (
	"context"
	"time"

	"github.com/aretw0/tandem/pkg/domain"
)

// RunRecord is the persisted outcome of one run.
type RunRecord struct {
	ID       string           `json:"id"`
	Request  string           `json:"request"`
	Messages []domain.Message `json:"messages"`

	// Outcome classifies the result ("ok", "agent_error", "step_limit", ...).
	Outcome string `json:"outcome"`
	// Error is set when the run failed; Messages then hold the partial transcript.
	Error string `json:"error,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration is the wall time of the run.
func (r RunRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// RunStore persists run records.
// Implementations must be safe for concurrent use.
type RunStore interface {
	// Save stores rec under rec.ID, replacing any previous record.
	Save(ctx context.Context, rec RunRecord) error

	// Load returns the record or domain.ErrRunNotFound.
	Load(ctx context.Context, id string) (RunRecord, error)

	// List returns the IDs of all stored runs.
	List(ctx context.Context) ([]string, error)

	// Delete removes a record. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, id string) error
}
