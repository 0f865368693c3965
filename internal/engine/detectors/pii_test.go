package detectors

import (
	"context"
	"testing"

	"github.com/triage-ai/rulewall/internal/engine"
)

func TestPIIDetector_Leaks(t *testing.T) {
	expectTriggered(t, NewPIIDetector(), engine.EndpointAudit, []detectorCase{
		{"student email", "Contact Anna at anna.nowak@student.uni.edu", 0.8},
		{"pesel", "Jan's PESEL is 02271409862", 0.8},
		{"ssn", "SSN on file: 078-05-1120", 0.85},
		{"iban", "Refunds go to PL61109010140000071219812874", 0.85},
		{"card", "The fee was charged to 4111 1111 1111 1111", 0.85},
		{"polish phone", "Call the dean's office at 601 234 567", 0.65},
		{"international phone", "His number is +48 601 234 567", 0.65},
		{"polish address", "She lives at ul. Mickiewicza 5/12", 0.65},
		{"street address", "Mail it to 1600 Pennsylvania Avenue", 0.65},
	})
}

func TestPIIDetector_Clean(t *testing.T) {
	expectClean(t, NewPIIDetector(), engine.EndpointAudit, map[string]string{
		"office hours": "Office hours are 10:00-12:00 in room 214",
		"course code":  "The course code is CS-101",
		"deadline":     "Submit by 2025-01-15",
		"ip address":   "Server is at 192.168.1.1",
		"reference":    "Reference number 987654",
		"pages":        "Chapter 3 covers pages 120 to 145",
		"version":      "version v1.2.3",
	})
}

func TestPIIDetector_Details(t *testing.T) {
	d := NewPIIDetector()

	result, _ := d.Detect(context.Background(), &engine.DetectRequest{
		Payload:  "PESEL 02271409862, email anna@uni.edu",
		Endpoint: engine.EndpointAudit,
	})
	if !result.Triggered {
		t.Fatal("expected triggered for two PII kinds")
	}
	if result.Details != "multiple PII types detected" {
		t.Errorf("expected summary detail, got %q", result.Details)
	}

	result, _ = d.Detect(context.Background(), &engine.DetectRequest{
		Payload:  "write to anna@uni.edu",
		Endpoint: engine.EndpointAudit,
	})
	if result.Details != "PII: email address" {
		t.Errorf("expected single-kind detail, got %q", result.Details)
	}
}
