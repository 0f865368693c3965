package engine

import (
	"context"
	"fmt"

	"github.com/triage-ai/rulewall/internal/llm"
	"github.com/triage-ai/rulewall/internal/rulestore"
)

// DefaultTopK is the number of rule fragments used as decision context.
const DefaultTopK = 3

// Retriever finds the rule fragments most similar to a piece of text.
type Retriever struct {
	embedder llm.Embedder
	store    rulestore.Store
	k        int
}

func NewRetriever(embedder llm.Embedder, store rulestore.Store, k int) *Retriever {
	if k <= 0 {
		k = DefaultTopK
	}
	return &Retriever{embedder: embedder, store: store, k: k}
}

// Retrieve embeds text and returns up to k matches, most similar first.
// An empty or missing collection yields an empty slice.
func (r *Retriever) Retrieve(ctx context.Context, text string) ([]rulestore.Match, error) {
	vec, err := r.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("Retrieve: embed query: %w", err)
	}
	matches, err := r.store.Search(ctx, vec, r.k)
	if err != nil {
		return nil, fmt.Errorf("Retrieve: search: %w", err)
	}
	return matches, nil
}
