package cli

import (
	"context"
	"fmt"

	"infra-rag/internal/chat"
	"infra-rag/internal/config"
	"infra-rag/internal/embedding"
	"infra-rag/internal/index"
	"infra-rag/internal/llm"
	"infra-rag/internal/mode"
)

// openStore builds the configured vector store backend.
func openStore(ctx context.Context, cfg *config.Config) (index.Store, error) {
	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		return nil, err
	}
	switch cfg.Store.Backend {
	case config.StoreChromem:
		return index.NewChromemStore(cfg.Store.Path, cfg.Store.Collection, embedder)
	case config.StorePostgres:
		return index.NewPostgresStore(ctx, cfg.Store.DSN, cfg.Store.Password, cfg.Store.Debug, embedder)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// newOrchestrator builds the query-time pipeline.
func newOrchestrator(ctx context.Context, cfg *config.Config) (*chat.Orchestrator, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	generator, err := llm.New(cfg.Inference)
	if err != nil {
		return nil, err
	}
	selector := mode.NewSelector(cfg.Retrieval.ArchitectK, cfg.Retrieval.AuditorK)
	return chat.New(store, generator, selector, cfg.Retrieval.HistoryWindow), nil
}

// sessionMode resolves the mode flag, falling back to the configured default.
func sessionMode(cfg *config.Config, flag string) (mode.Mode, error) {
	if flag != "" {
		return mode.Parse(flag)
	}
	return mode.Parse(cfg.Retrieval.DefaultMode)
}
