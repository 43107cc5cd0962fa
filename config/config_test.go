package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
	assert.Equal(t, StoreBackendMemory, cfg.Store.Backend)
	assert.Equal(t, 1536, cfg.Store.EmbeddingDim)
	assert.Equal(t, "https://api.openai.com/v1", cfg.Provider.BaseURL)
	assert.Equal(t, 45*time.Second, cfg.Provider.GenTimeout)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, 3, cfg.Retrieval.RerankK)
	assert.Equal(t, 3000, cfg.Retrieval.MaxContextChars)
	assert.InDelta(t, 0.05, cfg.Retrieval.DiversityMargin, 1e-9)
	assert.InDelta(t, 0.8, cfg.Retrieval.SparsePenalty, 1e-9)
	assert.Equal(t, "info", cfg.Observability.LogLevel)
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9191")
	t.Setenv("TOP_K", "8")
	t.Setenv("RERANK_K", "4")
	t.Setenv("SPARSE_PENALTY", "0.5")
	t.Setenv("EMBED_TIMEOUT", "2s")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, 8, cfg.Retrieval.TopK)
	assert.Equal(t, 4, cfg.Retrieval.RerankK)
	assert.InDelta(t, 0.5, cfg.Retrieval.SparsePenalty, 1e-9)
	assert.Equal(t, 2*time.Second, cfg.Provider.EmbedTimeout)
	assert.Equal(t, "console", cfg.Observability.LogFormat)
}

func TestNew_MalformedEnvFallsBackToDefault(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")
	t.Setenv("DIVERSITY_MARGIN", "wide")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.InDelta(t, 0.05, cfg.Retrieval.DiversityMargin, 1e-9)
}

func TestValidate_PostgresRequiresDatabaseURL(t *testing.T) {
	t.Setenv("STORE_BACKEND", "postgres")

	_, err := New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestValidate_UnknownBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "redis")

	_, err := New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store backend")
}

func TestValidate_RerankBounds(t *testing.T) {
	t.Setenv("TOP_K", "3")
	t.Setenv("RERANK_K", "5")

	_, err := New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rerank_k")
}

func TestValidate_ProductionRequiresAPIKey(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PROVIDER_API_KEY", "")

	_, err := New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}
