package detectors

import (
	"context"
	"regexp"

	"github.com/triage-ai/rulewall/internal/engine"
)

// Requests the assistant refuses whatever the rule corpus says.
var contentModPatterns = patternSet{
	// Weapons and violence
	{regexp.MustCompile(`(?i)\b(make|build|assemble|construct|3d[- ]print)\s+(a\s+|an\s+)?(bomb|pipe\s+bomb|explosive|ied|molotov|gun|firearm)\b`), 0.90, "violence: weapon construction"},
	{regexp.MustCompile(`(?i)\b(step[- ]by[- ]step|detailed)\s+(instructions|guide|recipe)\s+(for|to|on)\s+(making|building)\s+(a\s+|an\s+)?(bomb|explosive|weapon)`), 0.95, "violence: weapon instructions"},
	{regexp.MustCompile(`(?i)\bhow\s+(to|do\s+i|can\s+i)\s+(kill|murder|poison|hurt|attack)\s+(a\s+|my\s+)?(person|someone|people|lecturer|professor|classmate|student|neighbou?r)\b`), 0.95, "violence: harming a person"},
	{regexp.MustCompile(`(?i)\bjak\s+(zrobi[cć]|zbudowa[cć])\s+(bomb[eę]|ładunek|ladunek)`), 0.90, "violence: weapon construction (pl)"},

	// Self-harm
	{regexp.MustCompile(`(?i)\b(how\s+to|best\s+way\s+to|ways\s+to|methods\s+(of|for))\s+(commit(ting)?\s+suicide|kill(ing)?\s+myself|end(ing)?\s+my\s+life|hurt(ing)?\s+myself)\b`), 0.95, "self-harm: method request"},
	{regexp.MustCompile(`(?i)\b(encourage|convince|persuade)\s+(me|someone|him|her|them)\s+to\s+(self[- ]harm|commit\s+suicide|kill\s+(myself|himself|herself|themselves))`), 0.90, "self-harm: encouragement"},

	// Sexual content involving minors
	{regexp.MustCompile(`(?i)\b(child|children|minor|underage|kid|teen)s?\b.{0,25}\b(porn\w*|sexual|nude|naked|explicit)\b`), 0.99, "minors: sexual content"},
	{regexp.MustCompile(`(?i)\b(porn\w*|sexual|nude|naked|explicit)\b.{0,25}\b(child|children|minor|underage|kid)s?\b`), 0.99, "minors: sexual content"},

	// Attacks on systems
	{regexp.MustCompile(`(?i)\b(write|create|generate|build)\s+(a\s+|an\s+|some\s+)?(ransomware|keylogger|malware|virus|trojan|botnet|credential\s+stealer)\b`), 0.90, "cyber: malware authoring"},
	{regexp.MustCompile(`(?i)\bhow\s+(to|do\s+i|can\s+i)\s+(hack|break\s+into|take\s+down|ddos)\s+(the\s+|a\s+|our\s+)?(university\s+|school\s+|bank\s+|government\s+|company\s+|campus\s+)?(system|server|network|portal|database|website)\b`), 0.85, "cyber: intrusion instructions"},

	{regexp.MustCompile(`(?i)\b(synthesi[sz]e|manufacture|cook|make)\s+(meth(amphetamine)?|fentanyl|heroin|cocaine|mdma)\b`), 0.95, "illegal: drug synthesis"},
}

// ContentModDetector flags requests for harmful content.
type ContentModDetector struct{}

func NewContentModDetector() *ContentModDetector {
	return &ContentModDetector{}
}

func (d *ContentModDetector) Name() string {
	return "content_mod"
}

func (d *ContentModDetector) Category() engine.ThreatCategory {
	return engine.CategoryContentModeration
}

func (d *ContentModDetector) Detect(ctx context.Context, req *engine.DetectRequest) (*engine.DetectResult, error) {
	return contentModPatterns.best(ctx, req.Payload, ""), nil
}
