package api

import (
	"github.com/triage-ai/rulewall/internal/ingest"
)

// TextRequest is the JSON body for /gatekeeper, /audit and /anonymize.
type TextRequest struct {
	Text string `json:"text"`
}

// GatekeeperResp is returned by POST /gatekeeper. On PASS only Decision and
// AnonymizedText are set.
type GatekeeperResp struct {
	Decision       string `json:"decision"`
	Text           string `json:"text,omitempty"`
	Reason         string `json:"reason,omitempty"`
	AnonymizedText string `json:"anonymized_text"`
	RequestID      string `json:"request_id"`
}

// AuditResp is returned by POST /audit.
type AuditResp struct {
	Status        string `json:"status"`
	FinalResponse string `json:"final_response"`
	RequestID     string `json:"request_id"`
}

// AnonymizeResp is returned by POST /anonymize.
type AnonymizeResp struct {
	AnonymizedText string `json:"anonymized_text"`
}

// IngestResp is returned by POST /ingest/files.
type IngestResp struct {
	Status     string               `json:"status"`
	AddedRules int                  `json:"added_rules,omitempty"`
	Documents  int                  `json:"documents,omitempty"`
	Files      int                  `json:"files,omitempty"`
	Skipped    []ingest.SkippedFile `json:"skipped,omitempty"`
	DurationMs float64              `json:"duration_ms"`
	Message    string               `json:"message,omitempty"`
}

// ErrorResp is the standard error body.
type ErrorResp struct {
	Detail string `json:"detail"`
}

// UnavailableResp is returned when a dependency failed and no verdict exists.
type UnavailableResp struct {
	Detail   string `json:"detail"`
	Decision string `json:"decision"`
}

// decisionUnavailable is the explicit non-PASS verdict for dependency failures.
const decisionUnavailable = "UNAVAILABLE"
