package detectors

import (
	"context"
	"regexp"

	"github.com/triage-ai/rulewall/internal/engine"
)

// Requests for credentials, bulk records or other people's identifiers.
// A user offering their own data ("my email is ...") must not match.
var dataExtractionPatterns = patternSet{
	// Credentials
	{regexp.MustCompile(`(?i)\b(give|tell|show|send|reveal|share|what\s+is)\b.{0,30}\b(admin(istrator)?|root|superuser|database|db|wifi|system)\s+(password|passwd|credentials?|login)`), 0.95, "extraction: privileged credentials"},
	{regexp.MustCompile(`(?i)\b(admin(istrator)?|root)\s+(password|passwd|credentials)\b`), 0.85, "extraction: admin credentials mentioned"},
	{regexp.MustCompile(`(?i)\b(give|show|list|send|reveal|share)\b.{0,20}\b(api\s+keys?|access\s+tokens?|secret\s+keys?|private\s+keys?)\b`), 0.90, "extraction: keys or tokens"},

	// Bulk records
	{regexp.MustCompile(`(?i)\b(list|dump|export|show|give)\b.{0,20}\b(all\s+)?(users|students|employees|customers|accounts)\b.{0,30}\b(emails?|passwords?|data|records|details|list)\b`), 0.90, "extraction: bulk user records"},
	{regexp.MustCompile(`(?i)\b(give|send|show)\s+me\s+(the\s+)?(list|database)\s+of\s+(all\s+)?(users|students|employees|customers)\b`), 0.90, "extraction: user list"},
	{regexp.MustCompile(`(?i)\b(dump|export|download)\s+(the\s+)?(whole\s+|entire\s+)?(user\s+)?(database|db|table)\b`), 0.90, "extraction: database dump"},
	{regexp.MustCompile(`(?i)\bselect\s+\*\s+from\s+\w+`), 0.85, "extraction: raw SQL query"},

	// National identifiers of other people
	{regexp.MustCompile(`(?i)\b(give|send|list|show|what\s+(is|are))\b.{0,40}\b(pesel|ssn|social\s+security|national\s+id)\s*(numbers?|nos?)?\b`), 0.90, "extraction: national identifiers"},
	{regexp.MustCompile(`(?i)\bpodaj\b.{0,30}\b(pesel|has[lł]o|numery)\b`), 0.90, "extraction: identifiers or password (pl)"},
	{regexp.MustCompile(`(?i)\b(has[lł]o)\s+(administratora|admina|do\s+bazy)\b`), 0.90, "extraction: admin password (pl)"},

	// System internals
	{regexp.MustCompile(`(?i)\b(describe|explain|show)\b.{0,20}\b(your|the)\s+(system\s+architecture|database\s+schema|internal\s+configuration|vector\s+(store|database))\b`), 0.80, "extraction: system internals"},
}

// DataExtractionDetector flags attempts to pull credentials, bulk records or
// system internals out of the assistant.
type DataExtractionDetector struct{}

func NewDataExtractionDetector() *DataExtractionDetector {
	return &DataExtractionDetector{}
}

func (d *DataExtractionDetector) Name() string {
	return "data_extraction"
}

func (d *DataExtractionDetector) Category() engine.ThreatCategory {
	return engine.CategoryDataExfiltration
}

func (d *DataExtractionDetector) Detect(ctx context.Context, req *engine.DetectRequest) (*engine.DetectResult, error) {
	return dataExtractionPatterns.best(ctx, req.Payload, "multiple extraction techniques detected"), nil
}
