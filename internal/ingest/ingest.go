// Package ingest wires the offline pipeline: source loading, secret
// redaction, chunking, and idempotent vector index upserts.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"infra-rag/internal/chunker"
	"infra-rag/internal/index"
	"infra-rag/internal/redact"
	"infra-rag/internal/source"
)

// Upserter is what the runner needs from the vector index.
type Upserter interface {
	Upsert(ctx context.Context, candidates []chunker.Candidate) (index.UpsertSummary, error)
}

// Summary accounts for one ingestion run. Per-file and per-chunk failures are
// accumulated here, never aborting the run; only total corpus unavailability
// does.
type Summary struct {
	Files         int
	FilesFailed   int
	ChunksAdded   int
	ChunksSkipped int
	ChunksFailed  int
	Redactions    int
	Duration      time.Duration
}

// Runner executes ingestion runs as one-shot batches.
type Runner struct {
	loader   *source.Loader
	splitter *chunker.Splitter
	store    Upserter
}

func NewRunner(loader *source.Loader, splitter *chunker.Splitter, store Upserter) *Runner {
	return &Runner{loader: loader, splitter: splitter, store: store}
}

// Run loads the corpus, redacts and chunks every file, and upserts the
// candidates. Re-running on an unchanged corpus adds zero chunks. An aborted
// run leaves already-persisted chunks valid; resuming is safe.
func (r *Runner) Run(ctx context.Context, desc source.Descriptor) (Summary, error) {
	start := time.Now()
	var summary Summary

	files, err := r.loader.Load(ctx, desc)
	if err != nil {
		return summary, err
	}

	var candidates []chunker.Candidate
	for _, file := range files {
		clean, n := redact.Redact(file.Content)
		cands, err := r.splitter.Split(file.Path, clean)
		if err != nil {
			log.Warn().Err(err).Str("path", file.Path).Msg("chunking failed, file skipped")
			summary.FilesFailed++
			continue
		}
		summary.Files++
		summary.Redactions += n
		candidates = append(candidates, cands...)
	}

	upserted, err := r.store.Upsert(ctx, candidates)
	if err != nil {
		return summary, fmt.Errorf("upserting chunks: %w", err)
	}
	summary.ChunksAdded = upserted.Added
	summary.ChunksSkipped = upserted.Skipped
	summary.ChunksFailed = upserted.Failed
	summary.Duration = time.Since(start)

	log.Info().
		Int("files", summary.Files).
		Int("files_failed", summary.FilesFailed).
		Int("chunks_added", summary.ChunksAdded).
		Int("chunks_skipped", summary.ChunksSkipped).
		Int("chunks_failed", summary.ChunksFailed).
		Int("redactions", summary.Redactions).
		Dur("duration", summary.Duration).
		Msg("ingestion run complete")
	return summary, nil
}
