// Package redact masks credential-shaped literals in infrastructure code
// before it reaches the chunker, the vector store, or any model call.
package redact

import "regexp"

// Placeholder replaces the quoted literal of every redacted assignment.
const Placeholder = "[REDACTED]"

// rules match assignments of sensitive-looking attribute names to quoted
// literals, e.g. `password = "hunter2"` or `secret_key = "wJalr..."`.
var rules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\b(?:password|secret|key|token|access_key|secret_key)\b\s*=\s*)"([^"]+)"`),
}

// Redact returns text with every credential-shaped literal replaced by
// Placeholder, plus the number of literals masked. It is a pure function and
// idempotent: already-masked values are left alone and not counted again.
func Redact(text string) (string, int) {
	count := 0
	for _, rule := range rules {
		text = rule.ReplaceAllStringFunc(text, func(match string) string {
			sub := rule.FindStringSubmatch(match)
			if sub[2] == Placeholder {
				return match
			}
			count++
			return sub[1] + `"` + Placeholder + `"`
		})
	}
	return text, count
}
