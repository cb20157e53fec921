// Package chunker splits redacted file content into overlapping windows
// sized for the embedding model, preserving per-chunk provenance.
package chunker

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100
)

// Candidate is a chunk of one source file, not yet embedded or persisted.
type Candidate struct {
	Path    string
	Ordinal int
	Text    string
}

// Splitter produces overlapping chunk candidates from file content.
type Splitter struct {
	inner textsplitter.RecursiveCharacter
}

// NewSplitter creates a splitter with the given window size and overlap, in
// characters. Non-positive size falls back to the default; an overlap that
// would reach the window size is clamped to a quarter of it.
func NewSplitter(size, overlap int) *Splitter {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultChunkOverlap
	}
	if overlap >= size {
		overlap = size / 4
	}
	return &Splitter{
		inner: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(size),
			textsplitter.WithChunkOverlap(overlap),
			textsplitter.WithSeparators([]string{"\n\n", "\n", " ", ""}),
		),
	}
}

// Split chunks text into candidates carrying path and ordinal provenance.
// Empty or whitespace-only text yields no candidates; text shorter than the
// window yields exactly one. Deterministic for identical input.
func (s *Splitter) Split(path, text string) ([]Candidate, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	pieces, err := s.inner.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("split %s: %w", path, err)
	}
	candidates := make([]Candidate, 0, len(pieces))
	for _, piece := range pieces {
		if strings.TrimSpace(piece) == "" {
			continue
		}
		candidates = append(candidates, Candidate{
			Path:    path,
			Ordinal: len(candidates),
			Text:    piece,
		})
	}
	return candidates, nil
}
