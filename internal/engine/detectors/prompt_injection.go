package detectors

import (
	"context"
	"regexp"

	"github.com/triage-ai/rulewall/internal/engine"
)

// Attempts to replace the assistant's instructions or read them back.
var promptInjectionPatterns = patternSet{
	// Instruction override
	{regexp.MustCompile(`(?i)\b(ignore|disregard|forget)\s+(all\s+|any\s+)?(of\s+)?(the\s+|your\s+)?(previous|prior|earlier|above|preceding)\s+(instructions|directions|rules|guidelines|context)`), 0.95, "override: discard earlier instructions"},
	{regexp.MustCompile(`(?i)\b(ignore|disregard|bypass|override)\s+(the\s+|your\s+|any\s+)?(security|safety|content|system)\s+(rules|policy|policies|filters?|checks?|prompt|instructions)\b`), 0.95, "override: security policy"},
	{regexp.MustCompile(`(?i)\b(do\s+not|don't|stop)\s+(follow(ing)?|obey(ing)?)\s+(your|the|any)\s+(rules|guidelines|instructions|policy)\b`), 0.90, "override: stop following rules"},
	{regexp.MustCompile(`(?i)\b(zignoruj|pomi[nń]|zapomnij)\s+(o\s+)?(wszystkie\s+|wszystkich\s+)?(poprzednie|poprzednich|wcze[sś]niejsze|wcze[sś]niejszych|powy[zż]sze)\s+(instrukcje|instrukcjach|polecenia|zasady)`), 0.95, "override: discard earlier instructions (pl)"},
	{regexp.MustCompile(`(?i)\bnie\s+(stosuj|przestrzegaj)\s+(si[eę]\s+)?(do\s+)?(zasad|regu[lł]|instrukcji)`), 0.90, "override: stop following rules (pl)"},

	// Role reassignment
	{regexp.MustCompile(`(?i)\byou\s+are\s+now\s+(an?\s+)?(unrestricted|unfiltered|different|new|evil|free)\b`), 0.85, "role change: new identity"},
	{regexp.MustCompile(`(?i)\bfrom\s+now\s+on\s+you\s+(are|will|must|should)\b`), 0.85, "role change: from now on"},
	{regexp.MustCompile(`(?i)\byour\s+new\s+(role|persona|instructions|task)\s+(is|are)\b`), 0.85, "role change: new role"},
	{regexp.MustCompile(`(?i)\b(pretend|act)\s+(to\s+be|you\s+are|as\s+if\s+you\s+(are|were))\b`), 0.70, "role change: pretend"},

	// Chat-template and section markers
	{regexp.MustCompile(`(?i)(\[/?(SYSTEM|INST)\]|<\|im_start\|>\s*system|<<SYS>>)`), 0.95, "delimiter: chat template marker"},
	{regexp.MustCompile(`(?im)^\s*(###|---)\s*(new\s+)?(system|instructions?)\b`), 0.90, "delimiter: fake system section"},

	// Reading back the prompt or the retrieved rules
	{regexp.MustCompile(`(?i)\b(reveal|show|print|output|repeat|tell\s+me)\s+(me\s+)?(your|the)\s+(system|initial|original|hidden|internal)\s+(prompt|instructions|message|rules)`), 0.90, "extraction: system prompt"},
	{regexp.MustCompile(`(?i)\bwhat\s+(are|were|is)\s+your\s+(system|hidden|internal|security)\s+(prompt|instructions|rules)`), 0.85, "extraction: system prompt question"},
	{regexp.MustCompile(`(?i)\b(print|show|repeat|dump)\s+(everything|all\s+(the\s+)?text)\s+(above|before)\b`), 0.85, "extraction: preceding text"},
	{regexp.MustCompile(`(?i)\b(list|quote|print|show)\s+(all\s+)?(the\s+)?(rules|policy\s+fragments|regulations)\s+(you\s+(were\s+given|have|use)|in\s+your\s+context)`), 0.85, "extraction: retrieved rules"},
	{regexp.MustCompile(`(?i)\b(poka[zż]|wypisz|podaj)\s+(swoje\s+|twoje\s+)?(instrukcje|zasady|prompt)\s+(systemowe|bezpiecze[nń]stwa)`), 0.85, "extraction: system prompt (pl)"},
}

// PromptInjectionDetector flags attempts to override the assistant's instructions.
type PromptInjectionDetector struct{}

func NewPromptInjectionDetector() *PromptInjectionDetector {
	return &PromptInjectionDetector{}
}

func (d *PromptInjectionDetector) Name() string {
	return "prompt_injection"
}

func (d *PromptInjectionDetector) Category() engine.ThreatCategory {
	return engine.CategoryPromptInjection
}

func (d *PromptInjectionDetector) Detect(ctx context.Context, req *engine.DetectRequest) (*engine.DetectResult, error) {
	return promptInjectionPatterns.best(ctx, req.Payload, "multiple injection techniques detected"), nil
}
