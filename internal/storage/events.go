package storage

import (
	"context"
	"errors"
	"time"
)

// EventWriter is the interface for recording security events.
// Callers treat every error as non-fatal: a failed write never changes a
// decision that has already been made.
type EventWriter interface {
	Write(ctx context.Context, event *SecurityEvent) error
	Close() error
}

// SecurityEvent is one enforcement decision. Append-only.
type SecurityEvent struct {
	ID         string
	RequestID  string
	Timestamp  time.Time
	Endpoint   string // "gatekeeper" or "audit"
	InputText  string
	OutputText string
	Decision   string // "PASS" or "BLOCK"
}

// ErrBufferFull is returned by asynchronous writers that drop an event
// because their queue is saturated.
var ErrBufferFull = errors.New("storage: event buffer full")

// PreviewLength is the max runes of input echoed into log lines.
const PreviewLength = 500

// TruncatePayload returns the first N characters (runes) of a payload for
// preview output. It never splits a multi-byte UTF-8 character.
func TruncatePayload(payload string, maxLen int) string {
	runes := []rune(payload)
	if len(runes) <= maxLen {
		return payload
	}
	return string(runes[:maxLen])
}
