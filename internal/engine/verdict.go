package engine

import (
	"strings"
)

// ParseVerdict maps free-form model output to a Verdict.
//
// Fail-closed: if the block token appears anywhere in the output, case
// insensitively, the verdict is BLOCK. Everything else, including empty or
// unrelated output, is PASS. This is the only place the substring rule lives.
func ParseVerdict(output, blockToken string) Verdict {
	if blockToken == "" {
		blockToken = DefaultBlockToken
	}
	if strings.Contains(strings.ToUpper(output), strings.ToUpper(blockToken)) {
		return VerdictBlock
	}
	return VerdictPass
}
