package detectors

import (
	"context"
	"regexp"
	"strings"
)

// Self-introductions. Group 1 is the first name, group 2 the optional last name.
var namePhrases = []*regexp.Regexp{
	regexp.MustCompile(`\b(?i:my name is|my name's|name:|i am called|call me)\s+(\p{Lu}\p{Ll}+)(?:\s+(\p{Lu}\p{Ll}+(?:-\p{Lu}\p{Ll}+)?))?`),
	regexp.MustCompile(`(?i:nazywam się|mam na imię|imię i nazwisko:)\s+(\p{Lu}\p{Ll}+)(?:\s+(\p{Lu}\p{Ll}+(?:-\p{Lu}\p{Ll}+)?))?`),
}

// PatternAnonymizer masks credentials, contact details, identifiers and
// self-introduced names without a model.
type PatternAnonymizer struct {
	rules maskSet
}

func NewPatternAnonymizer() *PatternAnonymizer {
	rules := make(maskSet, 0, len(secretRules)+len(piiRules))
	rules = append(rules, secretRules...)
	rules = append(rules, piiRules...)
	return &PatternAnonymizer{rules: rules}
}

func (a *PatternAnonymizer) Anonymize(ctx context.Context, text string) (string, error) {
	out := text
	for _, r := range a.rules {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		out = maskMatches(r.re, out, r.placeholder)
	}
	for _, re := range namePhrases {
		out = maskNames(re, out)
	}
	return out, nil
}

// maskMatches replaces every match of re with placeholder, or only the "v"
// group when re has one.
func maskMatches(re *regexp.Regexp, s, placeholder string) string {
	group := re.SubexpIndex("v")
	matches := re.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if group > 0 && m[2*group] >= 0 {
			start, end = m[2*group], m[2*group+1]
		}
		b.WriteString(s[last:start])
		b.WriteString(placeholder)
		last = end
	}
	b.WriteString(s[last:])
	return b.String()
}

func maskNames(re *regexp.Regexp, s string) string {
	matches := re.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		// m[2:4] first name, m[4:6] last name (may be -1).
		b.WriteString(s[last:m[2]])
		b.WriteString("[FIRST_NAME]")
		last = m[3]
		if m[4] >= 0 {
			b.WriteString(s[m[3]:m[4]])
			b.WriteString("[LAST_NAME]")
			last = m[5]
		}
	}
	b.WriteString(s[last:])
	return b.String()
}
