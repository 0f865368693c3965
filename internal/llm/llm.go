// Package llm wraps the generation and embedding models behind small
// interfaces so the enforcement pipeline can run against Ollama or fakes.
package llm

import (
	"context"
	"errors"
)

// Generator produces a completion for a single prompt.
// Implementations must be deterministic for a fixed prompt (temperature 0).
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Embedder converts text into fixed-dimension vectors.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// ErrEmptyCompletion is returned when the model answers with no text at all.
var ErrEmptyCompletion = errors.New("llm: empty completion")
