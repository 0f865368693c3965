// Package detectors holds the model-free pattern detectors used by the
// rules classifier, and the pattern anonymizer.
package detectors

import (
	"context"
	"regexp"

	"github.com/triage-ai/rulewall/internal/engine"
)

type pattern struct {
	re         *regexp.Regexp
	confidence float32
	detail     string
}

// patternSet is a pre-compiled table scanned in order on every request.
type patternSet []pattern

// best returns the highest-confidence match. With summarize set, several
// distinct hits collapse into summary as the detail.
func (ps patternSet) best(ctx context.Context, payload, summary string) *engine.DetectResult {
	var bestConfidence float32
	var bestDetail string
	hits := 0

	for _, p := range ps {
		if ctx.Err() != nil {
			break
		}
		if !p.re.MatchString(payload) {
			continue
		}
		hits++
		if p.confidence > bestConfidence {
			bestConfidence = p.confidence
			bestDetail = p.detail
		}
	}

	if bestConfidence == 0 {
		return &engine.DetectResult{Triggered: false, Confidence: 0}
	}
	if hits > 1 && summary != "" {
		bestDetail = summary
	}
	return &engine.DetectResult{
		Triggered:  true,
		Confidence: bestConfidence,
		Details:    bestDetail,
	}
}

// Gatekeeper returns the detectors applied to inbound text.
func Gatekeeper() []engine.Detector {
	return []engine.Detector{
		NewPromptInjectionDetector(),
		NewJailbreakDetector(),
		NewDataExtractionDetector(),
		NewContentModDetector(),
	}
}

// Audit returns the detectors applied to outbound text.
func Audit() []engine.Detector {
	return []engine.Detector{
		NewSecretsDetector(),
		NewPIIDetector(),
	}
}
