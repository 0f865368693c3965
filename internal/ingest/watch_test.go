package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/triage-ai/rulewall/internal/llm"
	"github.com/triage-ai/rulewall/internal/rulestore"
)

func TestWatcher_ReingestsOnChange(t *testing.T) {
	root := t.TempDir()
	store := rulestore.NewMemoryStore(testDims)
	p := newTestPipeline(store, llm.NewHashEmbedder(testDims))

	runs := make(chan *Result, 4)
	w := NewWatcher(p, root, 50*time.Millisecond, zap.NewNop())
	w.OnRun = func(res *Result, err error) {
		if err == nil {
			runs <- res
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher time to register the root.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, root, "sub/new.txt", []byte("freshly added rule"))
	writeFile(t, root, "second.txt", []byte("another rule"))

	var last *Result
	deadline := time.After(5 * time.Second)
	for last == nil || last.FragmentsAdded < 2 {
		select {
		case res := <-runs:
			last = res
		case <-deadline:
			t.Fatal("watcher did not re-ingest in time")
		}
	}
	require.Equal(t, StatusSuccess, last.Status)
	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
