package domain

import "context"

// Field constants for structured logs and JSON standardization.
const (
	// KeyRunID is the log attribute carrying the run identifier.
	KeyRunID = "run_id"

	// KeyNode is the log attribute carrying the current node name.
	KeyNode = "node"

	// KeyStep is the log attribute carrying the 1-based node execution counter.
	KeyStep = "step"
)

type runIDKey struct{}

// WithRunID returns a context carrying the run identifier.
// The runtime uses it instead of generating one, and agents stamp it on their events.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunIDFrom returns the run identifier carried by ctx, or "".
func RunIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
