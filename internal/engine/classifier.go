package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/triage-ai/rulewall/internal/llm"
	"github.com/triage-ai/rulewall/internal/rulestore"
)

// Classifier decides PASS or BLOCK for text given the retrieved rules.
// Errors mean the decision could not be made; they are never a PASS.
type Classifier interface {
	Classify(ctx context.Context, text string, rules []rulestore.Match, policy EndpointPolicy) (Verdict, error)
}

// LLMClassifier asks a generation model to judge text strictly against the
// retrieved rules.
type LLMClassifier struct {
	gen    llm.Generator
	logger *zap.Logger
}

// NewLLMClassifier creates a classifier backed by gen.
func NewLLMClassifier(gen llm.Generator, logger *zap.Logger) *LLMClassifier {
	return &LLMClassifier{gen: gen, logger: logger}
}

func (c *LLMClassifier) Classify(ctx context.Context, text string, rules []rulestore.Match, policy EndpointPolicy) (Verdict, error) {
	ruleContext := FormatRules(rules)
	if len(rules) == 0 {
		switch policy.OnEmptyContext {
		case EmptyContextPass:
			return VerdictPass, nil
		case EmptyContextBlock:
			return VerdictBlock, nil
		default:
			ruleContext = policy.FallbackContext
		}
	}

	prompt, err := buildClassifierPrompt(text, ruleContext, policy)
	if err != nil {
		return 0, err
	}

	out, err := c.gen.Generate(ctx, prompt)
	if err != nil {
		return 0, fmt.Errorf("LLMClassifier.Classify: %w", err)
	}

	verdict := ParseVerdict(out, policy.BlockToken)
	c.logger.Debug("classifier output",
		zap.String("endpoint", string(policy.Endpoint)),
		zap.String("raw", out),
		zap.String("verdict", verdict.String()),
		zap.Int("rules", len(rules)),
	)
	return verdict, nil
}
