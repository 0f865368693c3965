package rulestore

import (
	"context"
	"fmt"
	"sync/atomic"
)

// MemoryStore is an in-process Store. Each Rebuild publishes a new generation
// atomically, so concurrent searches see either the old or the new set.
type MemoryStore struct {
	dims int
	gen  atomic.Pointer[[]Record] // nil until the first Rebuild
}

// NewMemoryStore creates an empty store for vectors of length dims.
func NewMemoryStore(dims int) *MemoryStore {
	return &MemoryStore{dims: dims}
}

func (s *MemoryStore) Rebuild(ctx context.Context, records []Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkDimensions(records, s.dims); err != nil {
		return fmt.Errorf("MemoryStore.Rebuild: %w", err)
	}

	next := make([]Record, len(records))
	for i, r := range records {
		r.Vector = append([]float32(nil), r.Vector...)
		next[i] = r
	}
	s.gen.Store(&next)
	return nil
}

func (s *MemoryStore) Search(ctx context.Context, vector []float32, k int) ([]Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(vector) != s.dims {
		return nil, fmt.Errorf("MemoryStore.Search: %w", ErrDimensionMismatch)
	}
	cur := s.gen.Load()
	if cur == nil || k <= 0 {
		return nil, nil
	}

	matches := make([]Match, 0, len(*cur))
	for _, r := range *cur {
		matches = append(matches, Match{
			ID:     r.ID,
			Text:   r.Text,
			Source: r.Source,
			Score:  cosine(vector, r.Vector),
		})
	}
	sortMatches(matches)
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	cur := s.gen.Load()
	if cur == nil {
		return 0, nil
	}
	return len(*cur), nil
}

// Records returns a snapshot of the live generation.
func (s *MemoryStore) Records() []Record {
	cur := s.gen.Load()
	if cur == nil {
		return nil
	}
	return append([]Record(nil), (*cur)...)
}

func (s *MemoryStore) Ping(_ context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
