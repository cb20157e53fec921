package chat

import (
	"regexp"
	"strings"
)

// Anaphora resolution is deliberately scoped to the subject of the
// immediately preceding turn. No full coreference resolution is attempted;
// failure to rewrite never blocks answering the literal question.

var pronounRe = regexp.MustCompile(`(?i)\b(it|that|this|they|them|these|those)\b`)

// subjectRe matches an infrastructure noun phrase with up to three leading
// qualifier words, e.g. "the web security group" or "my-app s3 bucket".
var subjectRe = regexp.MustCompile(`(?i)((?:[\w."-]+\s+){0,3}(?:security group|load balancer|auto ?scaling group|launch template|network acl|route table|s3 bucket|bucket|instance|vpc|subnet|cluster|database|db|gateway|firewall|role|policy|key pair|user))`)

// stopwords stripped from the front of a captured subject phrase.
var subjectStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "on": true, "in": true, "of": true,
	"for": true, "to": true, "at": true, "about": true, "my": true,
	"our": true, "that": true, "this": true,
}

// rewriteQuestion resolves a leading pronoun in question against the subject
// of the previous turn. Best-effort text substitution only: if no pronoun or
// no recognizable subject is found, the question is returned unchanged.
func rewriteQuestion(question string, prev *Turn) string {
	if prev == nil {
		return question
	}
	if !pronounRe.MatchString(question) {
		return question
	}
	subject := subjectOf(prev.Rewritten)
	if subject == "" {
		subject = subjectOf(prev.Question)
	}
	if subject == "" {
		subject = subjectOf(prev.Answer)
	}
	if subject == "" {
		return question
	}
	replaced := false
	return pronounRe.ReplaceAllStringFunc(question, func(match string) string {
		if replaced {
			return match
		}
		replaced = true
		return "the " + subject
	})
}

// subjectOf extracts the last infrastructure noun phrase from text, with
// leading stopwords trimmed.
func subjectOf(text string) string {
	matches := subjectRe.FindAllString(text, -1)
	if len(matches) == 0 {
		return ""
	}
	fields := strings.Fields(matches[len(matches)-1])
	for len(fields) > 0 && subjectStopwords[strings.ToLower(fields[0])] {
		fields = fields[1:]
	}
	return strings.Join(fields, " ")
}
