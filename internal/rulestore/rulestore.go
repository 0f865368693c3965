// Package rulestore holds the vector index of policy fragments. The whole
// collection is replaced on every Rebuild; readers only ever Search.
package rulestore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
)

// Record is one embedded rule fragment.
type Record struct {
	ID     string
	Text   string
	Source string // origin path relative to the ingestion root
	Vector []float32
}

// Match is a Record returned by Search with its cosine similarity.
type Match struct {
	ID     string
	Text   string
	Source string
	Score  float32
}

// Store is the contract every vector index backend implements.
// Implementations must be safe for concurrent Search calls; Rebuild calls are
// serialized by the caller.
type Store interface {
	// Rebuild drops the collection and recreates it holding exactly records.
	Rebuild(ctx context.Context, records []Record) error

	// Search returns up to k records ordered by descending similarity.
	// A missing collection yields an empty result, not an error.
	Search(ctx context.Context, vector []float32, k int) ([]Match, error)

	// Count returns the number of records in the live collection.
	Count(ctx context.Context) (int, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// ErrDimensionMismatch is returned when a vector does not match the
// collection's configured dimensionality.
var ErrDimensionMismatch = errors.New("rulestore: vector dimension mismatch")

func checkDimensions(records []Record, dims int) error {
	for _, r := range records {
		if len(r.Vector) != dims {
			return fmt.Errorf("%w: record %s has %d, collection wants %d", ErrDimensionMismatch, r.ID, len(r.Vector), dims)
		}
	}
	return nil
}

// cosine returns the cosine similarity of a and b, or 0 when either is a zero vector.
func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// sortMatches orders by score descending, breaking ties by ID so that equal
// scores always come back in the same order.
func sortMatches(m []Match) {
	sort.SliceStable(m, func(i, j int) bool {
		if m[i].Score != m[j].Score {
			return m[i].Score > m[j].Score
		}
		return m[i].ID < m[j].ID
	})
}
