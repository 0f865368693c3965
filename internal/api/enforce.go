package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/triage-ai/rulewall/internal/engine"
)

// handleGatekeeper implements POST /gatekeeper.
func (d *Dependencies) handleGatekeeper(schema *textSchema) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.decodeText(w, r, schema)
		if !ok {
			return
		}

		res, err := d.Enforcer.Gatekeep(r.Context(), req.Text)
		if err != nil {
			d.writeEnforcementError(w, r, err)
			return
		}

		resp := GatekeeperResp{
			Decision:       res.Decision.String(),
			AnonymizedText: res.AnonymizedText,
			RequestID:      res.RequestID,
		}
		if res.Decision == engine.VerdictBlock {
			resp.Text = res.Text
			resp.Reason = res.Reason
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// handleAudit implements POST /audit.
func (d *Dependencies) handleAudit(schema *textSchema) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.decodeText(w, r, schema)
		if !ok {
			return
		}

		res, err := d.Enforcer.Audit(r.Context(), req.Text)
		if err != nil {
			d.writeEnforcementError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, AuditResp{
			Status:        res.Status.String(),
			FinalResponse: res.FinalText,
			RequestID:     res.RequestID,
		})
	}
}

// handleAnonymize implements POST /anonymize.
func (d *Dependencies) handleAnonymize(schema *textSchema) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.decodeText(w, r, schema)
		if !ok {
			return
		}

		out, err := d.Enforcer.Anonymize(r.Context(), req.Text)
		if err != nil {
			d.writeEnforcementError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, AnonymizeResp{AnonymizedText: out})
	}
}

func (d *Dependencies) decodeText(w http.ResponseWriter, r *http.Request, schema *textSchema) (*TextRequest, bool) {
	req, err := schema.decode(r)
	if errors.Is(err, errBodyTooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResp{Detail: err.Error()})
		return nil, false
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: err.Error()})
		return nil, false
	}
	return req, true
}

// writeEnforcementError maps a pipeline failure to a response. A failed
// request never reads as PASS.
func (d *Dependencies) writeEnforcementError(w http.ResponseWriter, r *http.Request, err error) {
	d.Logger.Error("enforcement failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	if errors.Is(err, engine.ErrDependencyUnavailable) {
		writeJSON(w, http.StatusServiceUnavailable, UnavailableResp{
			Detail:   "dependency unavailable",
			Decision: decisionUnavailable,
		})
		return
	}
	writeJSON(w, http.StatusInternalServerError, UnavailableResp{
		Detail:   "internal error",
		Decision: decisionUnavailable,
	})
}
