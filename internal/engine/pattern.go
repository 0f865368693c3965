package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/triage-ai/rulewall/internal/rulestore"
)

// PatternClassifier is the model-free Classifier. It fans text out to the
// endpoint's detectors in parallel and aggregates their results. Retrieved
// rules are not consulted.
type PatternClassifier struct {
	detectors map[Endpoint][]Detector
	timeout   time.Duration
	agg       AggregatorConfig
	logger    *zap.Logger
}

// NewPatternClassifier creates a classifier with per-endpoint detector sets.
func NewPatternClassifier(detectors map[Endpoint][]Detector, timeout time.Duration, agg AggregatorConfig, logger *zap.Logger) *PatternClassifier {
	return &PatternClassifier{
		detectors: detectors,
		timeout:   timeout,
		agg:       agg,
		logger:    logger,
	}
}

// detectorOutput holds a single detector's result alongside its metadata.
type detectorOutput struct {
	name     string
	category ThreatCategory
	result   *DetectResult
	err      error
}

// ErrDetectorsIncomplete is returned when a detector failed or did not report
// before the deadline, so the absence of a hit proves nothing.
var ErrDetectorsIncomplete = errors.New("detectors incomplete")

// Classify aggregates the endpoint's detectors. A BLOCK from the detectors
// that did report stands; otherwise an incomplete run is an error, never PASS.
func (c *PatternClassifier) Classify(ctx context.Context, text string, _ []rulestore.Match, policy EndpointPolicy) (Verdict, error) {
	results, elapsed, evalErr := c.Evaluate(ctx, policy.Endpoint, text)
	agg := Aggregate(results, c.agg)
	c.logger.Debug("pattern classification",
		zap.String("endpoint", string(policy.Endpoint)),
		zap.String("verdict", agg.Verdict.String()),
		zap.String("reason", agg.Reason),
		zap.Duration("elapsed", elapsed),
		zap.Bool("complete", evalErr == nil),
	)
	if agg.Verdict == VerdictBlock {
		return VerdictBlock, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("PatternClassifier.Classify: %w", err)
	}
	if evalErr != nil {
		return 0, fmt.Errorf("PatternClassifier.Classify: %w", evalErr)
	}
	return agg.Verdict, nil
}

// Evaluate runs the endpoint's detectors in parallel and returns the results
// that arrived before the timeout. The error wraps ErrDetectorsIncomplete when
// any detector failed or missed the deadline.
//
// The channel is buffered for every detector, so goroutines that finish after
// the deadline never block; their results are simply not read.
func (c *PatternClassifier) Evaluate(ctx context.Context, endpoint Endpoint, text string) ([]*DetectorResult, time.Duration, error) {
	start := time.Now()
	detectors := c.detectors[endpoint]

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := &DetectRequest{Payload: text, Endpoint: endpoint}
	ch := make(chan detectorOutput, len(detectors))

	for _, det := range detectors {
		go func(d Detector) {
			result, err := d.Detect(ctx, req)
			ch <- detectorOutput{
				name:     d.Name(),
				category: d.Category(),
				result:   result,
				err:      err,
			}
		}(det)
	}

	collected := make([]detectorOutput, 0, len(detectors))
	remaining := len(detectors)
	var errs []error
	for remaining > 0 {
		select {
		case out := <-ch:
			collected = append(collected, out)
			remaining--
		case <-ctx.Done():
			c.logger.Warn("detector timeout exceeded",
				zap.String("endpoint", string(endpoint)),
				zap.Duration("timeout", c.timeout),
				zap.Int("missing", remaining),
			)
			errs = append(errs, fmt.Errorf("%w: %d of %d detectors did not report within %s",
				ErrDetectorsIncomplete, remaining, len(detectors), c.timeout))
			remaining = 0
		}
	}

	results := make([]*DetectorResult, 0, len(collected))
	for _, out := range collected {
		if out.err != nil {
			c.logger.Warn("detector error",
				zap.String("detector", out.name),
				zap.Error(out.err),
			)
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrDetectorsIncomplete, out.name, out.err))
			continue
		}
		if out.result == nil {
			errs = append(errs, fmt.Errorf("%w: %s returned no result", ErrDetectorsIncomplete, out.name))
			continue
		}
		results = append(results, &DetectorResult{
			Detector:   out.name,
			Triggered:  out.result.Triggered,
			Confidence: out.result.Confidence,
			Category:   out.category,
			Details:    out.result.Details,
		})
	}

	return results, time.Since(start), errors.Join(errs...)
}
