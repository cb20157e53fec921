// Package embedding wraps the consumed embedding capability: text in, fixed
// dimensionality vector out, with a bounded timeout per call.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"infra-rag/internal/config"
)

// ErrUnavailable reports that the embedding capability failed or timed out.
// During ingestion this is non-fatal per chunk; at query time it fails the
// query.
var ErrUnavailable = errors.New("embedding capability unavailable")

// Embedder embeds text through a configured model endpoint.
type Embedder struct {
	impl    *embeddings.EmbedderImpl
	timeout time.Duration
}

// New creates an embedder for the configured provider.
func New(cfg config.LLMConfig) (*Embedder, error) {
	client, err := newEmbedderClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing embedding provider: %w", err)
	}
	impl, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	return &Embedder{impl: impl, timeout: cfg.Timeout()}, nil
}

func newEmbedderClient(cfg config.LLMConfig) (embeddings.EmbedderClient, error) {
	switch cfg.Provider {
	case "ollama":
		return ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
	case "openai":
		return openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithEmbeddingModel(cfg.Model),
		)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// Embed returns the vector for one piece of text. Errors and timeouts come
// back wrapped in ErrUnavailable, never as a silent hang.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	vector, err := e.impl.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return vector, nil
}
