package detectors

import (
	"context"
	"regexp"

	"github.com/triage-ai/rulewall/internal/engine"
)

// maskRule is a pattern that can both detect and mask an entity. When the
// expression has a group named "v", only that group is masked.
type maskRule struct {
	re          *regexp.Regexp
	confidence  float32
	detail      string
	placeholder string
}

type maskSet []maskRule

func (ms maskSet) patterns() patternSet {
	ps := make(patternSet, len(ms))
	for i, m := range ms {
		ps[i] = pattern{re: m.re, confidence: m.confidence, detail: m.detail}
	}
	return ps
}

// Order matters for masking: longer and more specific shapes go first so a
// card number is not half-eaten by the phone pattern.
var piiRules = maskSet{
	{regexp.MustCompile(`\b[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}\b`), 0.85, "PII: email address", "[EMAIL]"},

	// IBAN
	{regexp.MustCompile(`\b[A-Z]{2}\d{2}[-\s]?[A-Z0-9]{4}[-\s]?(?:[A-Z0-9]{4}[-\s]?){1,7}[A-Z0-9]{1,4}\b`), 0.90, "PII: IBAN", "[SECRET]"},

	// Card numbers
	{regexp.MustCompile(`\b4\d{3}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`), 0.90, "PII: credit card (Visa)", "[SECRET]"},
	{regexp.MustCompile(`\b5[1-5]\d{2}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`), 0.90, "PII: credit card (Mastercard)", "[SECRET]"},
	{regexp.MustCompile(`\b3[47]\d{2}[-\s]?\d{6}[-\s]?\d{5}\b`), 0.90, "PII: credit card (Amex)", "[SECRET]"},
	{regexp.MustCompile(`\b6011[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`), 0.90, "PII: credit card (Discover)", "[SECRET]"},

	// National identifiers
	{regexp.MustCompile(`\b\d{2}(?:0[1-9]|1[0-2]|2[1-9]|3[0-2])(?:0[1-9]|[12]\d|3[01])\d{5}\b`), 0.85, "PII: PESEL", "[NATIONAL_ID]"},
	{regexp.MustCompile(`\b\d{3}[-\s]\d{2}[-\s]\d{4}\b`), 0.90, "PII: Social Security Number", "[NATIONAL_ID]"},

	// Phone numbers
	{regexp.MustCompile(`\+\d{1,3}[-\s]?\d{1,4}[-\s]?\d{3,4}[-\s]?\d{3,4}\b`), 0.70, "PII: phone number (international)", "[PHONE]"},
	{regexp.MustCompile(`(\+1[-\s]?)?\(?\b\d{3}\)?[-\s.]?\d{3}[-\s.]?\d{4}\b`), 0.75, "PII: phone number (US)", "[PHONE]"},
	{regexp.MustCompile(`\b\d{3}[-\s]\d{3}[-\s]\d{3}\b`), 0.70, "PII: phone number (PL)", "[PHONE]"},

	// Street addresses
	{regexp.MustCompile(`\b(?:ul\.|al\.|ulica|aleja)\s+\p{Lu}[\p{L}\-]+(?:\s+\p{Lu}[\p{L}\-]+)?\s+\d+[a-zA-Z]?(?:/\d+)?`), 0.70, "PII: street address (PL)", "[ADDRESS]"},
	{regexp.MustCompile(`\b\d{1,5}\s+\p{Lu}\p{Ll}+(?:\s+\p{Lu}\p{Ll}+)?\s+(?:Street|St\.|Avenue|Ave\.|Road|Rd\.|Boulevard|Blvd\.)`), 0.70, "PII: street address", "[ADDRESS]"},
}

var piiPatterns = piiRules.patterns()

// PIIDetector flags personally identifiable information in a payload.
type PIIDetector struct{}

func NewPIIDetector() *PIIDetector {
	return &PIIDetector{}
}

func (d *PIIDetector) Name() string {
	return "pii"
}

func (d *PIIDetector) Category() engine.ThreatCategory {
	return engine.CategoryPIILeakage
}

func (d *PIIDetector) Detect(ctx context.Context, req *engine.DetectRequest) (*engine.DetectResult, error) {
	return piiPatterns.best(ctx, req.Payload, "multiple PII types detected"), nil
}
