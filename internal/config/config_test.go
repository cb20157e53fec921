package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
corpus:
  path: ./data
embedding:
  provider: ollama
  base_url: http://localhost:11434
  model: nomic-embed-text
inference:
  provider: openai
  base_url: https://openrouter.ai/api
  model: google/gemini-2.5-flash
`))
	require.NoError(t, err)

	assert.Equal(t, []string{".tf", ".tfvars", ".hcl"}, cfg.Corpus.Extensions)
	assert.Equal(t, StoreChromem, cfg.Store.Backend)
	assert.Equal(t, "./vector_db", cfg.Store.Path)
	assert.Equal(t, "infra", cfg.Store.Collection)
	assert.Equal(t, 1000, cfg.Chunking.Size)
	require.NotNil(t, cfg.Chunking.Overlap)
	assert.Equal(t, 100, *cfg.Chunking.Overlap)
	assert.Equal(t, "architect", cfg.Retrieval.DefaultMode)
	assert.Equal(t, 3, cfg.Retrieval.ArchitectK)
	assert.Equal(t, 7, cfg.Retrieval.AuditorK)
	assert.Equal(t, 4, cfg.Retrieval.HistoryWindow)
	assert.Equal(t, 60*time.Second, cfg.Embedding.Timeout())
	assert.Equal(t, 120*time.Second, cfg.Inference.Timeout())
}

func TestLoadConfigExpandsKeyFromEnv(t *testing.T) {
	t.Setenv("TEST_INFERENCE_KEY", "sk-from-env")
	cfg, err := LoadConfig(writeConfig(t, `
corpus:
  path: ./data
inference:
  key: ${TEST_INFERENCE_KEY}
`))
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.Inference.Key)
}

func TestLoadConfigExplicitZeroOverlap(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
chunking:
  size: 500
  overlap: 0
`))
	require.NoError(t, err)
	require.NotNil(t, cfg.Chunking.Overlap)
	assert.Zero(t, *cfg.Chunking.Overlap, "explicit zero overlap must not be replaced by the default")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsAmbiguousCorpus(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
corpus:
  path: ./data
  repo_url: https://github.com/example/infra
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestValidateRejectsBadOverlap(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
chunking:
  size: 100
  overlap: 100
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overlap")
}

func TestValidateRejectsShallowAuditor(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
retrieval:
  architect_k: 5
  auditor_k: 5
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auditor_k")
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
store:
  backend: redis
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")
}

func TestValidatePostgresRequiresDSN(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
store:
  backend: postgres
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dsn")
}
