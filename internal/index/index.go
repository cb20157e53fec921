// Package index persists chunk embeddings and serves k-nearest-neighbor
// retrieval. The index is a derived cache: it is always re-creatable from the
// corpus by re-running ingestion.
package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sort"
	"time"

	"infra-rag/internal/chunker"
)

// ErrEmptyIndex reports that no chunks are persisted. Callers treat this as
// "no knowledge available", not a crash; a missing store is a valid initial
// state awaiting a first ingestion run.
var ErrEmptyIndex = errors.New("vector index is empty")

// Embedder is the consumed embedding capability, declared here on the
// consumer side.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Store is the persistent vector index. Upserts are idempotent by content
// hash; search is deterministic including tie-breaks.
type Store interface {
	Upsert(ctx context.Context, candidates []chunker.Candidate) (UpsertSummary, error)
	Search(ctx context.Context, query string, k int) ([]Hit, error)
	Count(ctx context.Context) (int, error)
}

// UpsertSummary reports one batch upsert: chunks newly embedded and stored,
// chunks already present, and chunks whose embedding failed (skipped,
// non-fatal).
type UpsertSummary struct {
	Added   int
	Skipped int
	Failed  int
}

// Hit is one retrieval result: a persisted chunk with its relevance score.
type Hit struct {
	ID        string
	Path      string
	Ordinal   int
	Text      string
	Score     float32
	IndexedAt time.Time
}

// ChunkID derives the stable identifier of a chunk from its source path and
// redacted text. Re-ingesting unchanged content reproduces the same ID, which
// is what makes upserts idempotent.
func ChunkID(path, text string) string {
	h := sha256.Sum256([]byte(path + "\x00" + text))
	return hex.EncodeToString(h[:16])
}

// sortHits orders hits by score descending, then most recent ingestion
// timestamp, then path lexical order, so a fixed index and query always
// reproduce the same result list.
func sortHits(hits []Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if !hits[i].IndexedAt.Equal(hits[j].IndexedAt) {
			return hits[i].IndexedAt.After(hits[j].IndexedAt)
		}
		return hits[i].Path < hits[j].Path
	})
}
