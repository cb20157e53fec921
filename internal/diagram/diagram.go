// Package diagram separates mermaid diagram payloads from generated prose so
// the UI can render them independently.
package diagram

import (
	"regexp"
	"strings"
)

// fence matches a complete mermaid code fence. An unterminated fence does not
// match and is treated as plain prose.
var fence = regexp.MustCompile("(?s)```mermaid\n(.*?)\n```")

// Extract scans generated text for a fenced mermaid block. If one is found it
// returns the surrounding prose with the block removed, the block's inner
// content, and true. With no (complete) block the text comes back unchanged.
// When several blocks are present only the first is extracted; later blocks
// stay in the prose.
func Extract(text string) (display string, payload string, ok bool) {
	loc := fence.FindStringSubmatchIndex(text)
	if loc == nil {
		return text, "", false
	}
	payload = text[loc[2]:loc[3]]
	display = strings.TrimSpace(text[:loc[0]] + text[loc[1]:])
	return display, payload, true
}
