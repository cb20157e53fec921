package chat

import (
	"path"
	"sort"
	"strings"

	"infra-rag/internal/index"
)

// citedSources returns the distinct retrieved source paths that the generated
// text actually references, by full relative path or by unique base name.
// The result is always a subset of the retrieval result: paths the model
// invents are never reported as citations.
func citedSources(text string, hits []index.Hit) []string {
	paths := make(map[string]bool, len(hits))
	byBase := make(map[string][]string)
	for _, hit := range hits {
		if paths[hit.Path] {
			continue
		}
		paths[hit.Path] = true
		base := path.Base(hit.Path)
		byBase[base] = append(byBase[base], hit.Path)
	}

	cited := make(map[string]bool)
	for p := range paths {
		if strings.Contains(text, p) {
			cited[p] = true
		}
	}
	// Models often cite just the file name; accept it when unambiguous.
	for base, full := range byBase {
		if len(full) == 1 && !cited[full[0]] && strings.Contains(text, base) {
			cited[full[0]] = true
		}
	}

	out := make([]string, 0, len(cited))
	for p := range cited {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
