package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/triage-ai/rulewall/internal/ingest"
)

const readyTimeout = 2 * time.Second

// handleIngest implements POST /ingest/files. The rebuild is not tied to the
// client connection; a disconnect does not abort it halfway.
func (d *Dependencies) handleIngest(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())

	res, err := d.Ingester.Run(ctx, d.SourceRoot)
	switch {
	case errors.Is(err, ingest.ErrSourceNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResp{Detail: "source directory not found"})
		return
	case errors.Is(err, ingest.ErrIngestInProgress):
		writeJSON(w, http.StatusConflict, ErrorResp{Detail: "ingestion already in progress"})
		return
	case err != nil:
		d.Logger.Error("ingestion failed", zap.String("root", d.SourceRoot), zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, ErrorResp{Detail: "dependency unavailable"})
		return
	}

	resp := IngestResp{
		Status:     res.Status,
		AddedRules: res.FragmentsAdded,
		Documents:  res.Documents,
		Files:      res.Files,
		Skipped:    res.Skipped,
		DurationMs: float64(res.Duration) / float64(time.Millisecond),
	}
	if res.Status == ingest.StatusEmpty {
		resp.Message = "no documents found; rule index left unchanged"
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleReady implements GET /readyz.
func (d *Dependencies) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := d.RuleStore.Ping(ctx); err != nil {
		d.Logger.Warn("readiness check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
