package engine

// Verdict is the binary enforcement decision.
type Verdict int

const (
	VerdictPass Verdict = iota + 1
	VerdictBlock
)

// String returns the wire name of the verdict.
func (v Verdict) String() string {
	switch v {
	case VerdictPass:
		return "PASS"
	case VerdictBlock:
		return "BLOCK"
	default:
		return "UNSPECIFIED"
	}
}

// Endpoint names an enforcement stage.
type Endpoint string

const (
	EndpointGatekeeper Endpoint = "gatekeeper" // inbound, before the primary model
	EndpointAudit      Endpoint = "audit"      // outbound, before the user
)

// ThreatCategory classifies the type of threat a detector covers.
type ThreatCategory int

const (
	CategoryUnspecified       ThreatCategory = iota
	CategoryPromptInjection                  // prompt_injection
	CategoryJailbreak                        // jailbreak
	CategoryPIILeakage                       // pii_leakage
	CategoryContentModeration                // content_moderation
	CategoryDataExfiltration                 // data_exfiltration
	CategoryCredentialLeak                   // credential_leak
)

// String returns the snake_case category name.
func (c ThreatCategory) String() string {
	switch c {
	case CategoryPromptInjection:
		return "prompt_injection"
	case CategoryJailbreak:
		return "jailbreak"
	case CategoryPIILeakage:
		return "pii_leakage"
	case CategoryContentModeration:
		return "content_moderation"
	case CategoryDataExfiltration:
		return "data_exfiltration"
	case CategoryCredentialLeak:
		return "credential_leak"
	default:
		return "unspecified"
	}
}

// DetectorResult is the output from a single detector run within the pattern classifier.
type DetectorResult struct {
	Detector   string
	Triggered  bool
	Confidence float32
	Category   ThreatCategory
	Details    string
}
