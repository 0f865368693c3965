package rulestore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id string, v ...float32) Record {
	return Record{ID: id, Text: "text " + id, Source: id + ".txt", Vector: v}
}

func TestMemoryStore_SearchBeforeRebuild(t *testing.T) {
	s := NewMemoryStore(2)
	got, err := s.Search(context.Background(), []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, got)

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryStore_SearchOrdersByCosine(t *testing.T) {
	s := NewMemoryStore(2)
	require.NoError(t, s.Rebuild(context.Background(), []Record{
		rec("a", 0, 1),
		rec("b", 1, 0),
		rec("c", 1, 1),
		rec("d", -1, 0),
	}))

	got, err := s.Search(context.Background(), []float32{1, 0.1}, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
	assert.Equal(t, "a", got[2].ID)
	assert.Equal(t, "b.txt", got[0].Source)
	assert.Equal(t, "text b", got[0].Text)
}

func TestMemoryStore_TiesBreakByID(t *testing.T) {
	s := NewMemoryStore(2)
	require.NoError(t, s.Rebuild(context.Background(), []Record{
		rec("z", 1, 0),
		rec("m", 2, 0),
		rec("a", 3, 0),
	}))

	for range 5 {
		got, err := s.Search(context.Background(), []float32{1, 0}, 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "a", got[0].ID)
		assert.Equal(t, "m", got[1].ID)
	}
}

func TestMemoryStore_RebuildReplacesEverything(t *testing.T) {
	s := NewMemoryStore(2)
	ctx := context.Background()
	require.NoError(t, s.Rebuild(ctx, []Record{rec("a", 1, 0), rec("b", 0, 1)}))
	require.NoError(t, s.Rebuild(ctx, []Record{rec("c", 1, 1)}))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.Search(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].ID)
}

func TestMemoryStore_DimensionMismatch(t *testing.T) {
	s := NewMemoryStore(3)
	err := s.Rebuild(context.Background(), []Record{rec("a", 1, 0)})
	assert.True(t, errors.Is(err, ErrDimensionMismatch))

	_, err = s.Search(context.Background(), []float32{1}, 1)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
}

func TestMemoryStore_RebuildCopiesInput(t *testing.T) {
	s := NewMemoryStore(2)
	in := []Record{rec("a", 1, 0)}
	require.NoError(t, s.Rebuild(context.Background(), in))
	in[0].Vector[0] = -1

	got, err := s.Search(context.Background(), []float32{1, 0}, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got[0].Score, 1e-6)
}

func TestMemoryStore_ConcurrentSearchDuringRebuild(t *testing.T) {
	s := NewMemoryStore(2)
	ctx := context.Background()
	oldGen := []Record{rec("old1", 1, 0), rec("old2", 0, 1)}
	newGen := []Record{rec("new1", 1, 0), rec("new2", 0, 1)}
	require.NoError(t, s.Rebuild(ctx, oldGen))

	var wg sync.WaitGroup
	errs := make(chan string, 100)
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%10 == 0 {
				gen := oldGen
				if i%20 == 0 {
					gen = newGen
				}
				_ = s.Rebuild(ctx, gen)
				return
			}
			got, err := s.Search(ctx, []float32{1, 1}, 2)
			if err != nil || len(got) != 2 {
				errs <- "bad result"
				return
			}
			// Both hits must come from the same generation.
			if got[0].ID[:3] != got[1].ID[:3] {
				errs <- "mixed generations: " + got[0].ID + " " + got[1].ID
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}

func TestCosine_ZeroVector(t *testing.T) {
	assert.Zero(t, cosine([]float32{0, 0}, []float32{1, 0}))
}
