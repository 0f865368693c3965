package llm

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"unicode"
)

// ScriptedGenerator is a Generator for tests and offline runs. Respond decides
// the completion for each prompt; every prompt is recorded.
type ScriptedGenerator struct {
	Respond func(prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
}

// NewStaticGenerator always answers with reply.
func NewStaticGenerator(reply string) *ScriptedGenerator {
	return &ScriptedGenerator{Respond: func(string) (string, error) { return reply, nil }}
}

func (g *ScriptedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	if g.Respond == nil {
		return "", ErrEmptyCompletion
	}
	return g.Respond(prompt)
}

// Prompts returns a copy of every prompt seen so far.
func (g *ScriptedGenerator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}

// Calls returns how many prompts were generated.
func (g *ScriptedGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

// HashEmbedder is a deterministic bag-of-words embedder. Texts sharing words
// land close together under cosine similarity, which is enough for retrieval
// tests without a model server.
type HashEmbedder struct {
	Dimensions int
}

func NewHashEmbedder(dims int) *HashEmbedder {
	return &HashEmbedder{Dimensions: dims}
}

func (e *HashEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.embed(t)
	}
	return out, nil
}

func (e *HashEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.embed(text), nil
}

func (e *HashEmbedder) embed(text string) []float32 {
	vec := make([]float32, e.Dimensions)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[h.Sum32()%uint32(e.Dimensions)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}
