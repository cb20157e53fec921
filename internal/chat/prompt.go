package chat

import (
	"fmt"
	"strings"

	"infra-rag/internal/index"
	"infra-rag/internal/mode"
)

// buildPrompt assembles one generation request: retrieved chunks tagged with
// their source paths, an optional mode augmentation, a bounded window of
// prior turns, and the (rewritten) question with grounding instructions.
func buildPrompt(strat mode.Strategy, hits []index.Hit, turns []Turn, historyWindow int, question string) string {
	var b strings.Builder

	b.WriteString("Use ONLY the following Terraform context to answer.\n\n")
	for _, hit := range hits {
		fmt.Fprintf(&b, "Source: %s\n%s\n\n", hit.Path, hit.Text)
	}

	if strat.Augment != "" {
		b.WriteString(strat.Augment)
		b.WriteString("\n\n")
	}

	if historyWindow > 0 && len(turns) > 0 {
		start := len(turns) - historyWindow
		if start < 0 {
			start = 0
		}
		b.WriteString("Previous conversation:\n")
		for _, turn := range turns[start:] {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", turn.Question, turn.Answer)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Question: %s\n\n", question)
	b.WriteString("Cite the source file paths you used in your answer. ")
	b.WriteString(`If the context does not contain the answer, say "I cannot find it in the provided code".`)
	return b.String()
}
