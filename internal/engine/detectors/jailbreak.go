package detectors

import (
	"context"
	"regexp"

	"github.com/triage-ai/rulewall/internal/engine"
)

// Persona and mode switches that claim the policy no longer applies.
var jailbreakPatterns = patternSet{
	// Personas
	{regexp.MustCompile(`(?i)(\b(you\s+are|act\s+as|become)\s+DAN\b|\bDAN\s+mode\b|\bdo\s+anything\s+now\b)`), 0.95, "persona: DAN"},
	{regexp.MustCompile(`(?i)\b(evil|unfiltered|uncensored|unrestricted|amoral)\s+(ai|assistant|chatbot|model|version|twin|mode)\b`), 0.90, "persona: unrestricted assistant"},

	// Privileged modes
	{regexp.MustCompile(`(?i)\b(enter|enable|activate|switch\s+to)\s+(developer|debug|admin|maintenance|god|sudo|root)\s+mode\b`), 0.90, "mode switch: privileged mode"},
	{regexp.MustCompile(`(?i)\b(developer|debug|admin|maintenance|god|sudo)\s+mode\s+(is\s+)?(on|enabled|activated)\b`), 0.90, "mode switch: privileged mode claimed"},
	{regexp.MustCompile(`(?i)\btryb(u)?\s+(deweloperski|dewelopera|administratora|debugowania|boga)`), 0.90, "mode switch: privileged mode (pl)"},

	// Claims that the rules are gone
	{regexp.MustCompile(`(?i)\byou\s+(have|are\s+under)\s+no\s+(rules|restrictions|limits|limitations|filters|policy)\b`), 0.90, "claim: no restrictions"},
	{regexp.MustCompile(`(?i)\b(without|with\s+no)\s+(any\s+)?(ethical|moral|safety|security)\s+(rules|limits|guidelines|restrictions|filters)\b`), 0.85, "claim: drop safety constraints"},
	{regexp.MustCompile(`(?i)\b(remove|lift|unlock|turn\s+off|disable)\s+(all\s+)?(your\s+)?(restrictions|limitations|filters|safeguards|guardrails)\b`), 0.90, "claim: disable safeguards"},
	{regexp.MustCompile(`(?i)\bbez\s+(żadnych\s+|zadnych\s+)?(ogranicze[nń]|zasad|filtr[oó]w|cenzury)`), 0.85, "claim: no restrictions (pl)"},
	{regexp.MustCompile(`(?i)\b(i\s+am|i'm)\s+(the|an?|your)\s+(administrator|admin|developer|system\s+owner)\b.{0,40}\b(authori[sz]e|allow|permit|override|unlock)`), 0.85, "claim: administrator authorization"},

	// Framing
	{regexp.MustCompile(`(?i)\b(hypothetical|fictional|imaginary)\s+(world|scenario|story|universe)\s+(where|in\s+which)\b.{0,40}\b(no\s+(rules|restrictions|laws|policy)|anything\s+is\s+allowed)`), 0.80, "framing: fiction without rules"},
	{regexp.MustCompile(`(?i)\bthis\s+is\s+(just\s+|only\s+)?(a|an)\s+(test|drill|authori[sz]ed\s+audit)\b.{0,40}\b(so|therefore)\b.{0,20}\b(you\s+can|it'?s\s+(ok|fine|allowed))`), 0.75, "framing: test exemption"},

	// Output smuggling
	{regexp.MustCompile(`(?i)\b(answer|respond|reply|write)\s+(only\s+)?(in|using)\s+(base64|hex|rot13|binary|morse|reversed\s+text)\b`), 0.80, "smuggling: encoded output"},
	{regexp.MustCompile(`(?i)\b(split|spell\s+out|break)\s+(the\s+|your\s+)?(answer|response|password|secret)\s+(into|letter\s+by\s+letter|one\s+character)`), 0.75, "smuggling: fragmented output"},

	{regexp.MustCompile(`(?i)\bjailbr(eak|oken)\b`), 0.75, "keyword: jailbreak"},
}

// JailbreakDetector flags persona, mode and framing tricks.
type JailbreakDetector struct{}

func NewJailbreakDetector() *JailbreakDetector {
	return &JailbreakDetector{}
}

func (d *JailbreakDetector) Name() string {
	return "jailbreak"
}

func (d *JailbreakDetector) Category() engine.ThreatCategory {
	return engine.CategoryJailbreak
}

func (d *JailbreakDetector) Detect(ctx context.Context, req *engine.DetectRequest) (*engine.DetectResult, error) {
	return jailbreakPatterns.best(ctx, req.Payload, "multiple jailbreak techniques detected"), nil
}
