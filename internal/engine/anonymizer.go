package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/triage-ai/rulewall/internal/llm"
)

// Anonymizer replaces sensitive entities in text with fixed placeholders.
type Anonymizer interface {
	Anonymize(ctx context.Context, text string) (string, error)
}

// LLMAnonymizer prompts a generation model to tag sensitive entities.
type LLMAnonymizer struct {
	gen llm.Generator
}

func NewLLMAnonymizer(gen llm.Generator) *LLMAnonymizer {
	return &LLMAnonymizer{gen: gen}
}

func (a *LLMAnonymizer) Anonymize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	prompt, err := buildAnonymizerPrompt(text)
	if err != nil {
		return "", err
	}
	out, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("LLMAnonymizer.Anonymize: %w", err)
	}
	return cleanAnonymized(out), nil
}

// cleanAnonymized trims whitespace and a single pair of quotes the model
// sometimes wraps its answer in.
func cleanAnonymized(out string) string {
	out = strings.TrimSpace(out)
	if len(out) >= 2 {
		first, last := out[0], out[len(out)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			out = strings.TrimSpace(out[1 : len(out)-1])
		}
	}
	return out
}
