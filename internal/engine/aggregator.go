package engine

import (
	"strings"
)

// AggregatorConfig holds the threshold for verdict determination.
type AggregatorConfig struct {
	BlockThreshold float32 // Confidence >= this → BLOCK (default 0.8)
}

// DefaultAggregatorConfig returns the default threshold.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{BlockThreshold: 0.8}
}

// AggregateResult holds the final verdict and reason after aggregation.
type AggregateResult struct {
	Verdict Verdict
	Reason  string
}

// Aggregate applies the threshold to detector results.
//
// Rules:
//  1. If ANY detector has Triggered=true AND Confidence >= BlockThreshold → BLOCK
//  2. Otherwise → PASS
//
// The reason lists every triggered detector, including those below threshold.
func Aggregate(results []*DetectorResult, cfg AggregatorConfig) AggregateResult {
	verdict := VerdictPass
	var triggeredNames []string

	for _, r := range results {
		if !r.Triggered {
			continue
		}
		triggeredNames = append(triggeredNames, r.Detector)
		if r.Confidence >= cfg.BlockThreshold {
			verdict = VerdictBlock
		}
	}

	reason := ""
	if len(triggeredNames) > 0 {
		reason = "triggered: " + strings.Join(triggeredNames, ", ")
	}

	return AggregateResult{
		Verdict: verdict,
		Reason:  reason,
	}
}
