package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 200, cfg.Search.MaxResults)
	assert.Equal(t, 200, cfg.Search.DefaultLimit)
	assert.True(t, cfg.Search.Unify)
	assert.Equal(t, 1, cfg.Search.FuzzyShort)
	assert.Equal(t, 2, cfg.Search.FuzzyMedium)
	assert.Equal(t, 3, cfg.Search.FuzzyLong)
	assert.Equal(t, "index.published", cfg.Kafka.Topics.IndexPublished)
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docsearch.yaml")
	yaml := `
index:
  path: /srv/doc/search-index.js
  watch: true
  debounce: 1s
search:
  maxResults: 50
  defaultLimit: 20
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("DS_SEARCH_DEFAULT_LIMIT", "10")
	t.Setenv("DS_KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/doc/search-index.js", cfg.Index.Path)
	assert.True(t, cfg.Index.Watch)
	assert.Equal(t, time.Second, cfg.Index.Debounce)
	assert.Equal(t, 50, cfg.Search.MaxResults)
	assert.Equal(t, 10, cfg.Search.DefaultLimit)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestLoadRejectsInvalidLimits(t *testing.T) {
	t.Setenv("DS_SEARCH_MAX_RESULTS", "5")
	t.Setenv("DS_SEARCH_DEFAULT_LIMIT", "10")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "defaultLimit")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadRejectsSampleRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docsearch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tracing:\n  enabled: true\n  sampleRate: 2\n"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sampleRate")
}

func TestDevelopmentConfigLoads(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "development.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "search-index.js", cfg.Index.Path)
	assert.Equal(t, "data/segments", cfg.Index.DataDir)
	assert.Equal(t, 250*time.Millisecond, cfg.Index.Debounce)
	assert.Equal(t, 50*time.Millisecond, cfg.Redis.OpTimeout)
}
