package index

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"infra-rag/internal/chunker"
)

// chunkRecord is the pgvector-backed row model. The embedding column
// dimensionality matches the default embedding model; a different model needs
// a rebuilt table, which is fine because the index is a derived cache.
type chunkRecord struct {
	bun.BaseModel `bun:"table:chunks,alias:c"`

	ID        string    `bun:"id,pk"`
	Path      string    `bun:"path,notnull"`
	Ordinal   int       `bun:"ordinal,notnull"`
	Content   string    `bun:"content,notnull"`
	Embedding []float32 `bun:"embedding,notnull,type:vector(768)"`
	IndexedAt time.Time `bun:"indexed_at,notnull"`

	Score float64 `bun:"score,scanonly"`
}

// PostgresStore is the alternative Store backend for deployments that already
// run Postgres with the pgvector extension.
type PostgresStore struct {
	db       *bun.DB
	embedder Embedder
}

// NewPostgresStore connects to Postgres and ensures the chunks table exists.
func NewPostgresStore(ctx context.Context, dsn, password string, debug bool, embedder Embedder) (*PostgresStore, error) {
	opts := []pgdriver.Option{pgdriver.WithDSN(dsn)}
	if password != "" {
		opts = append(opts, pgdriver.WithPassword(password))
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(opts...))
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	if _, err := db.NewCreateTable().Model((*chunkRecord)(nil)).IfNotExists().Exec(ctx); err != nil {
		return nil, fmt.Errorf("creating chunks table: %w", err)
	}
	return &PostgresStore{db: db, embedder: embedder}, nil
}

// Upsert embeds and inserts new candidates; rows whose content hash already
// exists are left untouched (ON CONFLICT DO NOTHING), keeping re-ingestion
// idempotent. Each insert is independently durable, so an aborted run leaves
// a valid partial index.
func (s *PostgresStore) Upsert(ctx context.Context, candidates []chunker.Candidate) (UpsertSummary, error) {
	var summary UpsertSummary
	now := time.Now().UTC()
	seen := make(map[string]bool, len(candidates))

	for _, cand := range candidates {
		id := ChunkID(cand.Path, cand.Text)
		if seen[id] {
			summary.Skipped++
			continue
		}
		seen[id] = true
		vector, err := s.embedder.Embed(ctx, cand.Text)
		if err != nil {
			log.Warn().Err(err).Str("path", cand.Path).Int("ordinal", cand.Ordinal).
				Msg("embedding failed, chunk skipped")
			summary.Failed++
			continue
		}
		rec := &chunkRecord{
			ID:        id,
			Path:      cand.Path,
			Ordinal:   cand.Ordinal,
			Content:   cand.Text,
			Embedding: vector,
			IndexedAt: now,
		}
		res, err := s.db.NewInsert().Model(rec).On("CONFLICT (id) DO NOTHING").Exec(ctx)
		if err != nil {
			return summary, fmt.Errorf("storing chunk %s: %w", id, err)
		}
		n, raErr := res.RowsAffected()
		switch {
		case raErr != nil:
			log.Warn().Err(raErr).Str("id", id).
				Msg("rows affected unavailable, counting chunk as added")
			summary.Added++
		case n == 0:
			summary.Skipped++
		default:
			summary.Added++
		}
	}
	return summary, nil
}

// Search embeds the query and returns the k nearest chunks by cosine
// similarity, with deterministic tie-breaks applied locally.
func (s *PostgresStore) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	if k < 1 {
		return nil, fmt.Errorf("search: k must be at least 1, got %d", k)
	}
	count, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrEmptyIndex
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	// Secondary order keys keep row selection among equal distances stable
	// before the LIMIT cut.
	var recs []chunkRecord
	err = s.db.NewSelect().
		Model(&recs).
		ColumnExpr("c.*").
		ColumnExpr("1 - (c.embedding <=> ?) AS score", vector).
		OrderExpr("c.embedding <=> ?", vector).
		OrderExpr("c.indexed_at DESC").
		OrderExpr("c.path ASC").
		Limit(k).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying vector store: %w", err)
	}

	hits := make([]Hit, 0, len(recs))
	for _, rec := range recs {
		hits = append(hits, Hit{
			ID:        rec.ID,
			Path:      rec.Path,
			Ordinal:   rec.Ordinal,
			Text:      rec.Content,
			Score:     float32(rec.Score),
			IndexedAt: rec.IndexedAt,
		})
	}
	sortHits(hits)
	return hits, nil
}

// Count returns the number of persisted chunks.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	count, err := s.db.NewSelect().Model((*chunkRecord)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// Close releases the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
