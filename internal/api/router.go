package api

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/triage-ai/rulewall/internal/engine"
	"github.com/triage-ai/rulewall/internal/ingest"
)

// DefaultMaxTextLength bounds the text field of enforcement requests.
const DefaultMaxTextLength = 32768

// Enforcer runs the decision pipelines.
type Enforcer interface {
	Gatekeep(ctx context.Context, text string) (*engine.GatekeeperResult, error)
	Audit(ctx context.Context, text string) (*engine.AuditResult, error)
	Anonymize(ctx context.Context, text string) (string, error)
}

// Ingester rebuilds the rule index from a source tree.
type Ingester interface {
	Run(ctx context.Context, root string) (*ingest.Result, error)
}

// Pinger reports whether a backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds shared state injected into all HTTP handlers.
type Dependencies struct {
	Enforcer       Enforcer
	Ingester       Ingester
	RuleStore      Pinger
	SourceRoot     string
	AdminTokenHash string // bcrypt; empty leaves /ingest/files open
	MaxTextLength  int
	Logger         *zap.Logger
}

// NewRouter builds the HTTP mux with all routes wired up.
func NewRouter(deps *Dependencies) (http.Handler, error) {
	maxLen := deps.MaxTextLength
	if maxLen <= 0 {
		maxLen = DefaultMaxTextLength
	}
	schema, err := newTextSchema(maxLen)
	if err != nil {
		return nil, fmt.Errorf("NewRouter: %w", err)
	}

	mux := http.NewServeMux()

	// Enforcement
	mux.HandleFunc("POST /gatekeeper", deps.handleGatekeeper(schema))
	mux.HandleFunc("POST /audit", deps.handleAudit(schema))
	mux.HandleFunc("POST /anonymize", deps.handleAnonymize(schema))

	// Administration (bcrypt bearer token when configured)
	mux.HandleFunc("POST /ingest/files", deps.adminAuth(deps.handleIngest))

	// Health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /readyz", deps.handleReady)

	return corsMiddleware(requestLogging(mux, deps.Logger)), nil
}
