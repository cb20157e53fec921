// Package llm wraps the consumed generation capability: prompt in, text out,
// with a bounded timeout per call.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"infra-rag/internal/config"
)

// ErrUnavailable reports that the generation capability failed or timed out.
// The failed turn surfaces to the caller; the session stays valid.
var ErrUnavailable = errors.New("generation capability unavailable")

// Client calls a configured chat model.
type Client struct {
	model   llms.Model
	timeout time.Duration
}

// New creates a generation client for the configured provider.
func New(cfg config.LLMConfig) (*Client, error) {
	model, err := newModel(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing inference provider: %w", err)
	}
	return &Client{model: model, timeout: cfg.Timeout()}, nil
}

func newModel(cfg config.LLMConfig) (llms.Model, error) {
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
			openai.WithModel(cfg.Model),
		)
	default:
		return nil, fmt.Errorf("unknown inference provider %q", cfg.Provider)
	}
}

// Generate produces an answer from a system instruction and a user prompt.
// Errors and timeouts come back wrapped in ErrUnavailable.
func (c *Client) Generate(ctx context.Context, system, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	resp, err := c.model.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: model returned no choices", ErrUnavailable)
	}
	return resp.Choices[0].Content, nil
}
