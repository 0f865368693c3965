package engine

import (
	"context"
)

// Detector is the interface every pattern detector must implement.
// Implementations must respect context deadlines and return quickly.
type Detector interface {
	// Name returns the detector's unique identifier (e.g., "prompt_injection").
	Name() string

	// Category returns the threat category this detector covers.
	Category() ThreatCategory

	// Detect runs the detection logic against the given request.
	Detect(ctx context.Context, req *DetectRequest) (*DetectResult, error)
}

// DetectRequest contains the text and stage for a detection run.
type DetectRequest struct {
	Payload  string
	Endpoint Endpoint
}

// DetectResult is the outcome of a single detector run.
type DetectResult struct {
	Triggered  bool
	Confidence float32 // 0.0 – 1.0
	Details    string
}
