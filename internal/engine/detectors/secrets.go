package detectors

import (
	"context"
	"regexp"

	"github.com/triage-ai/rulewall/internal/engine"
)

var secretRules = maskSet{
	{regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA |OPENSSH |PGP )?PRIVATE KEY-----`), 0.99, "credential: private key", "[SECRET]"},
	{regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`), 0.95, "credential: AWS access key", "[SECRET]"},
	{regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{36}\b`), 0.95, "credential: GitHub token", "[SECRET]"},
	{regexp.MustCompile(`\bxox[baprs]-[0-9]{10,13}-[0-9]{10,13}[a-zA-Z0-9-]*`), 0.95, "credential: Slack token", "[SECRET]"},
	{regexp.MustCompile(`\b[sr]k_live_[0-9a-zA-Z]{24,}\b`), 0.95, "credential: Stripe key", "[SECRET]"},
	{regexp.MustCompile(`\beyJ[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]{8,}`), 0.85, "credential: JWT", "[SECRET]"},
	{regexp.MustCompile(`(?i)\bbearer\s+(?P<v>[A-Za-z0-9._-]{20,})`), 0.85, "credential: bearer token", "[SECRET]"},
	{regexp.MustCompile(`\b[a-zA-Z][a-zA-Z0-9+.\-]*://[^\s:/@]+:(?P<v>[^\s@/]+)@`), 0.90, "credential: password in URL", "[SECRET]"},
	{regexp.MustCompile(`(?i)\b(?:api[_-]?key|secret[_-]?key|access[_-]?token|auth[_-]?token)\s*[=:]\s*['"]?(?P<v>[A-Za-z0-9_\-]{16,})['"]?`), 0.90, "credential: API key assignment", "[SECRET]"},
	{regexp.MustCompile(`(?i)\b(?:password|passwd|pwd|passcode|has[lł]o)\b[^.\n]{0,25}?(?:\bis\b|\bto\b|:|=)\s*['"]?(?P<v>[^\s'".,;]{6,})`), 0.90, "credential: password disclosure", "[SECRET]"},
}

var secretPatterns = secretRules.patterns()

// SecretsDetector flags credentials and keys in a payload. It runs on
// outbound text, where a leaked secret is the main audit concern.
type SecretsDetector struct{}

func NewSecretsDetector() *SecretsDetector {
	return &SecretsDetector{}
}

func (d *SecretsDetector) Name() string {
	return "secrets"
}

func (d *SecretsDetector) Category() engine.ThreatCategory {
	return engine.CategoryCredentialLeak
}

func (d *SecretsDetector) Detect(ctx context.Context, req *engine.DetectRequest) (*engine.DetectResult, error) {
	return secretPatterns.best(ctx, req.Payload, "multiple credential types detected"), nil
}
