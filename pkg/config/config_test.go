package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/normsearch/normsearch/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, SourceCSV, cfg.Corpus.Source)
	assert.Equal(t, FieldsExcerpt, cfg.Corpus.SearchFields)
	assert.Equal(t, GranularityWord, cfg.Retrieval.Granularity)
	assert.InDelta(t, 0.1, cfg.Retrieval.Threshold, 1e-9)
	assert.True(t, cfg.Retrieval.FallbackEnabled)
	assert.Equal(t, OrderVectorFirst, cfg.Retrieval.Order)
	assert.Equal(t, 3, cfg.Retrieval.MinFragment)
	assert.Equal(t, 5, cfg.Retrieval.MaxFragment)
	assert.Zero(t, cfg.Retrieval.MaxResults)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
corpus:
  source: sqlite
  path: normas.db
  searchFields: manifestation_excerpt
retrieval:
  granularity: char
  threshold: 0.05
  order: exact_first
  maxResults: 3
redis:
  enabled: true
  cacheTTL: 30s
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, SourceSQLite, cfg.Corpus.Source)
	assert.Equal(t, "normas.db", cfg.Corpus.Path)
	assert.Equal(t, FieldsManifestationExcerpt, cfg.Corpus.SearchFields)
	assert.Equal(t, GranularityChar, cfg.Retrieval.Granularity)
	assert.InDelta(t, 0.05, cfg.Retrieval.Threshold, 1e-9)
	assert.Equal(t, OrderExactFirst, cfg.Retrieval.Order)
	assert.Equal(t, 3, cfg.Retrieval.MaxResults)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Redis.CacheTTL)
	// untouched keys keep their defaults
	assert.Equal(t, 5, cfg.Retrieval.MaxFragment)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("NS_RETRIEVAL_THRESHOLD", "0.25")
	t.Setenv("NS_RETRIEVAL_GRANULARITY", "CHAR")
	t.Setenv("NS_RETRIEVAL_FALLBACK", "false")
	t.Setenv("NS_CORPUS_PATH", "/srv/normas.csv")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.InDelta(t, 0.25, cfg.Retrieval.Threshold, 1e-9)
	assert.Equal(t, GranularityChar, cfg.Retrieval.Granularity)
	assert.False(t, cfg.Retrieval.FallbackEnabled)
	assert.Equal(t, "/srv/normas.csv", cfg.Corpus.Path)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown source", func(c *Config) { c.Corpus.Source = "excel" }},
		{"unknown fields", func(c *Config) { c.Corpus.SearchFields = "recommendations" }},
		{"unknown granularity", func(c *Config) { c.Retrieval.Granularity = "sentence" }},
		{"unknown order", func(c *Config) { c.Retrieval.Order = "random" }},
		{"negative threshold", func(c *Config) { c.Retrieval.Threshold = -0.1 }},
		{"threshold of one", func(c *Config) { c.Retrieval.Threshold = 1 }},
		{"inverted fragments", func(c *Config) { c.Retrieval.MinFragment, c.Retrieval.MaxFragment = 5, 3 }},
		{"zero fragment", func(c *Config) { c.Retrieval.MinFragment = 0 }},
		{"negative cap", func(c *Config) { c.Retrieval.MaxResults = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	p := Default().Postgres
	assert.Equal(t,
		"host=localhost port=5432 user=normsearch password=localdev dbname=normsearch sslmode=disable",
		p.DSN(),
	)
}

func TestLoadDevelopmentConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "development.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Retrieval.MaxResults)
	assert.Equal(t, 10*time.Minute, cfg.Redis.CacheTTL)
	assert.False(t, cfg.Redis.Enabled)
}
