package engine

import (
	"testing"
)

func TestDefaultPolicies_Asymmetric(t *testing.T) {
	gk := DefaultGatekeeperPolicy()
	au := DefaultAuditPolicy()

	if gk.OnEmptyContext != EmptyContextFallback {
		t.Errorf("gatekeeper should fall back on empty context, got %s", gk.OnEmptyContext)
	}
	if au.OnEmptyContext != EmptyContextPass {
		t.Errorf("audit should pass on empty context, got %s", au.OnEmptyContext)
	}
	if gk.FallbackContext == "" {
		t.Error("gatekeeper fallback context must not be empty")
	}
	if gk.Refusal == au.Refusal {
		t.Error("gatekeeper and audit refusals are expected to differ")
	}
}

func TestDefaultPolicies_Valid(t *testing.T) {
	for _, p := range []EndpointPolicy{DefaultGatekeeperPolicy(), DefaultAuditPolicy()} {
		if err := p.Validate(); err != nil {
			t.Errorf("%s: unexpected error: %v", p.Endpoint, err)
		}
	}
}

func TestEndpointPolicy_FallbackRequiresContext(t *testing.T) {
	p := DefaultGatekeeperPolicy()
	p.FallbackContext = ""
	if err := p.Validate(); err == nil {
		t.Error("expected error for fallback without context")
	}
}

func TestEndpointPolicy_UnknownEmptyContext(t *testing.T) {
	p := DefaultAuditPolicy()
	p.OnEmptyContext = "maybe"
	if err := p.Validate(); err == nil {
		t.Error("expected error for unknown on_empty_context")
	}
}

func TestEndpointPolicy_MissingTokens(t *testing.T) {
	p := DefaultAuditPolicy()
	p.BlockToken = ""
	if err := p.Validate(); err == nil {
		t.Error("expected error for missing block token")
	}
}

func TestEndpointPolicy_MissingRefusal(t *testing.T) {
	p := DefaultGatekeeperPolicy()
	p.Refusal = ""
	if err := p.Validate(); err == nil {
		t.Error("expected error for missing refusal")
	}
}
