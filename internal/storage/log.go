package storage

import (
	"context"

	"go.uber.org/zap"
)

// LogWriter is a fallback EventWriter for local development.
// It logs events as structured JSON to stdout via zap.
type LogWriter struct {
	logger *zap.Logger
}

// NewLogWriter creates a LogWriter that outputs events to the given logger.
func NewLogWriter(logger *zap.Logger) *LogWriter {
	return &LogWriter{logger: logger}
}

func (w *LogWriter) Write(_ context.Context, event *SecurityEvent) error {
	w.logger.Info("security_event",
		zap.String("event_id", event.ID),
		zap.String("request_id", event.RequestID),
		zap.Time("timestamp", event.Timestamp),
		zap.String("endpoint", event.Endpoint),
		zap.String("decision", event.Decision),
		zap.String("input_preview", TruncatePayload(event.InputText, PreviewLength)),
		zap.String("output_preview", TruncatePayload(event.OutputText, PreviewLength)),
	)
	return nil
}

func (w *LogWriter) Close() error { return nil }
