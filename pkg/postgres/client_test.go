package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
)

func TestSchemaStatementsAreIdempotent(t *testing.T) {
	for _, stmt := range Schema {
		assert.Contains(t, stmt, "IF NOT EXISTS")
	}
}

// TestEnsureSchema runs against a live database when DS_TEST_POSTGRES_HOST
// is set.
func TestEnsureSchema(t *testing.T) {
	host := os.Getenv("DS_TEST_POSTGRES_HOST")
	if host == "" {
		t.Skip("DS_TEST_POSTGRES_HOST not set")
	}
	cfg := config.Default().Postgres
	cfg.Host = host
	c, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.EnsureSchema(context.Background()))
	require.NoError(t, c.EnsureSchema(context.Background()))

	var n int
	err = c.DB.QueryRow(`SELECT COUNT(*) FROM information_schema.tables WHERE table_name IN ('index_versions','index_loads','analytics_snapshots')`).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
