package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   Verdict
	}{
		{"bare block", "BLOCK", VerdictBlock},
		{"bare pass", "PASS", VerdictPass},
		{"lowercase block", "block", VerdictBlock},
		{"wrapped block", "The answer is: BLOCK.", VerdictBlock},
		{"negated block still blocks", "definitely not BLOCK", VerdictBlock},
		{"both tokens", "PASS? no, BLOCK", VerdictBlock},
		{"pass then block mention", "PASS (would BLOCK otherwise)", VerdictBlock},
		{"block inside word", "BLOCKED", VerdictBlock},
		{"empty output", "", VerdictPass},
		{"whitespace", "  \n", VerdictPass},
		{"unrelated text", "I cannot decide.", VerdictPass},
		{"pass with reasoning", "PASS - the user shares their own email", VerdictPass},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseVerdict(tt.output, DefaultBlockToken))
		})
	}
}

func TestParseVerdict_CustomToken(t *testing.T) {
	assert.Equal(t, VerdictBlock, ParseVerdict("verdict: deny", "DENY"))
	assert.Equal(t, VerdictPass, ParseVerdict("verdict: BLOCK", "DENY"))
}

func TestParseVerdict_EmptyTokenUsesDefault(t *testing.T) {
	assert.Equal(t, VerdictBlock, ParseVerdict("block", ""))
}

func TestVerdict_String(t *testing.T) {
	assert.Equal(t, "PASS", VerdictPass.String())
	assert.Equal(t, "BLOCK", VerdictBlock.String())
	assert.Equal(t, "UNSPECIFIED", Verdict(0).String())
}
