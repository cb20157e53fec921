package index

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"infra-rag/internal/chunker"
)

// ChromemStore is the default Store backend: an embedded chromem-go database
// persisted on disk, so index state survives process restarts without any
// external service.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedder   Embedder
}

// NewChromemStore opens (or creates) a persistent chromem database at path
// and binds the named collection. A missing directory is a valid initial
// state.
func NewChromemStore(path, collectionName string, embedder Embedder) (*ChromemStore, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("opening vector store at %s: %w", path, err)
	}
	collection, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("opening collection %s: %w", collectionName, err)
	}
	return &ChromemStore{db: db, collection: collection, embedder: embedder}, nil
}

// Upsert embeds and stores new candidates, skipping any whose content hash is
// already present. A record only becomes visible once fully formed: the
// embedding is computed before the document is added, never filled in later.
// Per-candidate embedding failures are counted and skipped.
func (s *ChromemStore) Upsert(ctx context.Context, candidates []chunker.Candidate) (UpsertSummary, error) {
	var summary UpsertSummary
	now := time.Now().UTC()
	seen := make(map[string]bool, len(candidates))
	var docs []chromem.Document

	for _, cand := range candidates {
		id := ChunkID(cand.Path, cand.Text)
		if seen[id] {
			summary.Skipped++
			continue
		}
		seen[id] = true
		if _, err := s.collection.GetByID(ctx, id); err == nil {
			summary.Skipped++
			continue
		}
		vector, err := s.embedder.Embed(ctx, cand.Text)
		if err != nil {
			log.Warn().Err(err).Str("path", cand.Path).Int("ordinal", cand.Ordinal).
				Msg("embedding failed, chunk skipped")
			summary.Failed++
			continue
		}
		docs = append(docs, chromem.Document{
			ID:        id,
			Content:   cand.Text,
			Embedding: vector,
			Metadata: map[string]string{
				"path":       cand.Path,
				"ordinal":    strconv.Itoa(cand.Ordinal),
				"indexed_at": now.Format(time.RFC3339Nano),
			},
		})
	}

	if len(docs) > 0 {
		if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			return summary, fmt.Errorf("storing %d chunks: %w", len(docs), err)
		}
		summary.Added = len(docs)
	}
	return summary, nil
}

// Search embeds the query and returns the k most similar chunks, ordered by
// descending cosine similarity with deterministic tie-breaks.
func (s *ChromemStore) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	if k < 1 {
		return nil, fmt.Errorf("search: k must be at least 1, got %d", k)
	}
	count := s.collection.Count()
	if count == 0 {
		return nil, ErrEmptyIndex
	}
	if k > count {
		k = count
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	// chromem's internal top-k keeps whichever tied documents arrive first,
	// so rank the full collection and cut to k after the deterministic sort.
	results, err := s.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: vector,
		NResults:       count,
	})
	if err != nil {
		return nil, fmt.Errorf("querying vector store: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, res := range results {
		hits = append(hits, Hit{
			ID:        res.ID,
			Path:      res.Metadata["path"],
			Ordinal:   atoiOrZero(res.Metadata["ordinal"]),
			Text:      res.Content,
			Score:     res.Similarity,
			IndexedAt: parseTimeOrZero(res.Metadata["indexed_at"]),
		})
	}
	sortHits(hits)
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Count returns the number of persisted chunks.
func (s *ChromemStore) Count(_ context.Context) (int, error) {
	return s.collection.Count(), nil
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func parseTimeOrZero(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
