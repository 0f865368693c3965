package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/triage-ai/rulewall/internal/rulestore"
	"github.com/triage-ai/rulewall/internal/storage"
)

var tracer = otel.Tracer("github.com/triage-ai/rulewall/internal/engine")

// ErrDependencyUnavailable wraps every failure of the rule store or the
// models on the decision path. Such a request has no verdict.
var ErrDependencyUnavailable = errors.New("dependency unavailable")

// BlockReason is the only explanation returned to a blocked caller.
const BlockReason = "The request violates the security policy."

// DefaultEventTimeout bounds a single event write.
const DefaultEventTimeout = 5 * time.Second

// RuleRetriever returns decision context for text.
type RuleRetriever interface {
	Retrieve(ctx context.Context, text string) ([]rulestore.Match, error)
}

// GatekeeperResult is the outcome of an inbound check.
type GatekeeperResult struct {
	RequestID      string
	Decision       Verdict
	AnonymizedText string
	Text           string // refusal, set on BLOCK only
	Reason         string // generic, set on BLOCK only
}

// AuditResult is the outcome of an outbound check.
type AuditResult struct {
	RequestID string
	Status    Verdict
	FinalText string
}

// Options configures an Enforcer.
type Options struct {
	Gatekeeper   EndpointPolicy
	Audit        EndpointPolicy
	EventTimeout time.Duration
}

// Enforcer runs the gatekeeper and audit pipelines. Each call is synchronous
// and independent; an Enforcer is safe for concurrent use when its
// dependencies are.
type Enforcer struct {
	anonymizer Anonymizer
	retriever  RuleRetriever
	classifier Classifier
	events     storage.EventWriter
	opts       Options
	logger     *zap.Logger
}

// NewEnforcer wires the pipeline stages together.
func NewEnforcer(anonymizer Anonymizer, retriever RuleRetriever, classifier Classifier, events storage.EventWriter, opts Options, logger *zap.Logger) (*Enforcer, error) {
	if err := opts.Gatekeeper.Validate(); err != nil {
		return nil, fmt.Errorf("NewEnforcer: %w", err)
	}
	if err := opts.Audit.Validate(); err != nil {
		return nil, fmt.Errorf("NewEnforcer: %w", err)
	}
	if opts.EventTimeout <= 0 {
		opts.EventTimeout = DefaultEventTimeout
	}
	return &Enforcer{
		anonymizer: anonymizer,
		retriever:  retriever,
		classifier: classifier,
		events:     events,
		opts:       opts,
		logger:     logger,
	}, nil
}

// Gatekeep checks inbound text.
//
//  1. Anonymize (always, even if the request ends up blocked)
//  2. Retrieve rules for the original text
//  3. Classify
//  4. Record the event
//
// A blocked result carries a generic refusal; rule text never leaves here.
func (e *Enforcer) Gatekeep(ctx context.Context, text string) (*GatekeeperResult, error) {
	policy := e.opts.Gatekeeper
	requestID := uuid.New().String()

	ctx, span := tracer.Start(ctx, "engine.Gatekeep", trace.WithAttributes(attribute.String("request_id", requestID)))
	defer span.End()

	anonText, err := e.anonymize(ctx, text)
	if err != nil {
		return nil, spanError(span, err)
	}

	verdict, err := e.decide(ctx, text, policy)
	if err != nil {
		return nil, spanError(span, err)
	}

	res := &GatekeeperResult{
		RequestID:      requestID,
		Decision:       verdict,
		AnonymizedText: anonText,
	}
	output := anonText
	if verdict == VerdictBlock {
		res.Text = policy.Refusal
		res.Reason = BlockReason
		output = policy.Refusal
	}

	span.SetAttributes(attribute.String("decision", verdict.String()))
	e.logDecision(policy.Endpoint, requestID, text, verdict)
	e.record(ctx, requestID, policy.Endpoint, text, output, verdict)
	return res, nil
}

// Audit checks outbound text. A blocked response is replaced by the refusal
// notice; a passing one is returned unchanged.
func (e *Enforcer) Audit(ctx context.Context, text string) (*AuditResult, error) {
	policy := e.opts.Audit
	requestID := uuid.New().String()

	ctx, span := tracer.Start(ctx, "engine.Audit", trace.WithAttributes(attribute.String("request_id", requestID)))
	defer span.End()

	verdict, err := e.decide(ctx, text, policy)
	if err != nil {
		return nil, spanError(span, err)
	}

	final := text
	if verdict == VerdictBlock {
		final = policy.Refusal
	}

	span.SetAttributes(attribute.String("decision", verdict.String()))
	e.logDecision(policy.Endpoint, requestID, text, verdict)
	e.record(ctx, requestID, policy.Endpoint, text, final, verdict)
	return &AuditResult{RequestID: requestID, Status: verdict, FinalText: final}, nil
}

// Anonymize runs only the anonymizer. Nothing is classified or recorded.
func (e *Enforcer) Anonymize(ctx context.Context, text string) (string, error) {
	ctx, span := tracer.Start(ctx, "engine.Anonymize")
	defer span.End()

	out, err := e.anonymize(ctx, text)
	if err != nil {
		return "", spanError(span, err)
	}
	return out, nil
}

func (e *Enforcer) anonymize(ctx context.Context, text string) (string, error) {
	ctx, span := tracer.Start(ctx, "engine.anonymize")
	defer span.End()

	out, err := e.anonymizer.Anonymize(ctx, text)
	if err != nil {
		return "", fmt.Errorf("%w: anonymize: %w", ErrDependencyUnavailable, err)
	}
	return out, nil
}

// decide retrieves the rule context and classifies text against it.
func (e *Enforcer) decide(ctx context.Context, text string, policy EndpointPolicy) (Verdict, error) {
	rctx, rspan := tracer.Start(ctx, "engine.retrieve")
	rules, err := e.retriever.Retrieve(rctx, text)
	rspan.SetAttributes(attribute.Int("rules", len(rules)))
	rspan.End()
	if err != nil {
		return 0, fmt.Errorf("%w: retrieve: %w", ErrDependencyUnavailable, err)
	}

	cctx, cspan := tracer.Start(ctx, "engine.classify")
	verdict, err := e.classifier.Classify(cctx, text, rules, policy)
	cspan.End()
	if err != nil {
		return 0, fmt.Errorf("%w: classify: %w", ErrDependencyUnavailable, err)
	}
	return verdict, nil
}

func (e *Enforcer) logDecision(endpoint Endpoint, requestID, input string, verdict Verdict) {
	e.logger.Info("decision",
		zap.String("endpoint", string(endpoint)),
		zap.String("request_id", requestID),
		zap.String("decision", verdict.String()),
		zap.String("input_preview", storage.TruncatePayload(input, storage.PreviewLength)),
	)
}

// record writes the security event. Failures are logged and swallowed; the
// decision has already been made.
func (e *Enforcer) record(ctx context.Context, requestID string, endpoint Endpoint, input, output string, verdict Verdict) {
	if e.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.opts.EventTimeout)
	defer cancel()

	event := &storage.SecurityEvent{
		ID:         uuid.New().String(),
		RequestID:  requestID,
		Timestamp:  time.Now().UTC(),
		Endpoint:   string(endpoint),
		InputText:  input,
		OutputText: output,
		Decision:   verdict.String(),
	}
	if err := e.events.Write(ctx, event); err != nil {
		e.logger.Warn("failed to record security event",
			zap.String("request_id", requestID),
			zap.String("endpoint", string(endpoint)),
			zap.Error(err),
		)
	}
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
