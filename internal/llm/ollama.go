package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// OllamaConfig holds connection settings for a local or remote Ollama server.
type OllamaConfig struct {
	ServerURL      string
	ChatModel      string
	EmbeddingModel string
	Timeout        time.Duration
	BatchSize      int
}

// OllamaGenerator implements Generator using langchaingo's Ollama client.
type OllamaGenerator struct {
	client *ollama.LLM
	model  string
}

// NewOllamaGenerator creates a generator bound to cfg.ChatModel.
func NewOllamaGenerator(cfg OllamaConfig) (*OllamaGenerator, error) {
	serverURL := cfg.ServerURL
	if serverURL == "" {
		serverURL = "http://localhost:11434"
	}

	client, err := ollama.New(
		ollama.WithServerURL(serverURL),
		ollama.WithModel(cfg.ChatModel),
		ollama.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("NewOllamaGenerator: %w", err)
	}
	return &OllamaGenerator{client: client, model: cfg.ChatModel}, nil
}

// Generate runs the prompt at temperature 0.
func (g *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, g.client, prompt, llms.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("ollama generate (%s): %w", g.model, err)
	}
	if strings.TrimSpace(out) == "" {
		return "", ErrEmptyCompletion
	}
	return out, nil
}

// OllamaEmbedder implements Embedder using an Ollama embedding model.
type OllamaEmbedder struct {
	embedder *embeddings.EmbedderImpl
	model    string
}

// NewOllamaEmbedder creates an embedder bound to cfg.EmbeddingModel.
func NewOllamaEmbedder(cfg OllamaConfig) (*OllamaEmbedder, error) {
	serverURL := cfg.ServerURL
	if serverURL == "" {
		serverURL = "http://localhost:11434"
	}

	client, err := ollama.New(
		ollama.WithServerURL(serverURL),
		ollama.WithModel(cfg.EmbeddingModel),
		ollama.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("NewOllamaEmbedder: %w", err)
	}

	opts := []embeddings.Option{embeddings.WithStripNewLines(false)}
	if cfg.BatchSize > 0 {
		opts = append(opts, embeddings.WithBatchSize(cfg.BatchSize))
	}
	emb, err := embeddings.NewEmbedder(client, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewOllamaEmbedder: %w", err)
	}
	return &OllamaEmbedder{embedder: emb, model: cfg.EmbeddingModel}, nil
}

func (e *OllamaEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("ollama embed (%s): %w", e.model, err)
	}
	return vecs, nil
}

func (e *OllamaEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("ollama embed (%s): %w", e.model, err)
	}
	return vec, nil
}
