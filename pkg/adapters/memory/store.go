package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/tandem/pkg/domain"
	"github.com/aretw0/tandem/pkg/ports"
)

// Store implements ports.RunStore in memory.
// Records live as long as the process. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	runs    map[string]ports.RunRecord
	order   []string // insertion order, oldest first
	maxRuns int
}

// NewStore creates an empty run store keeping at most maxRuns records,
// evicting the oldest first. Zero keeps every record.
func NewStore(maxRuns int) *Store {
	return &Store{
		runs:    make(map[string]ports.RunRecord),
		maxRuns: maxRuns,
	}
}

// Save stores a copy of rec. Replacing a record keeps its position.
func (s *Store) Save(ctx context.Context, rec ports.RunRecord) error {
	rec.Messages = slices.Clone(rec.Messages)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[rec.ID]; !exists {
		s.order = append(s.order, rec.ID)
	}
	s.runs[rec.ID] = rec

	for s.maxRuns > 0 && len(s.order) > s.maxRuns {
		delete(s.runs, s.order[0])
		s.order = s.order[1:]
	}
	return nil
}

// Load returns a copy of the stored record.
func (s *Store) Load(ctx context.Context, id string) (ports.RunRecord, error) {
	s.mu.RLock()
	rec, ok := s.runs[id]
	s.mu.RUnlock()

	if !ok {
		return ports.RunRecord{}, domain.ErrRunNotFound
	}
	rec.Messages = slices.Clone(rec.Messages)
	return rec, nil
}

// List returns the stored IDs, oldest first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order), nil
}

// Delete removes a record.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[id]; !ok {
		return nil
	}
	delete(s.runs, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return nil
}
