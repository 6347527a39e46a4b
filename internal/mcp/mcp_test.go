package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/indextest"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
)

func newServer(t *testing.T, load bool) *Server {
	t.Helper()
	cfg := config.Default()
	path := filepath.Join(t.TempDir(), "search-index.js")
	require.NoError(t, os.WriteFile(path, indextest.ScenarioBlob(), 0o644))
	engine := indexer.NewEngine(config.IndexConfig{Path: path}, nil)
	if load {
		_, err := engine.Reload(context.Background(), "startup")
		require.NoError(t, err)
	}
	return NewServer(cfg.MCP, executor.New(engine, cfg.Search, nil), engine)
}

func call(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestSearchAPI(t *testing.T) {
	s := newServer(t, true)
	res, err := s.handleSearchAPI(context.Background(), call(map[string]interface{}{"query": "console", "limit": float64(1)}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var out executor.SearchResult
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &out))
	assert.Equal(t, 2, out.Total)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "os::sbi::console_getchar", out.Results[0].Path)
}

func TestSearchAPIKindFilter(t *testing.T) {
	s := newServer(t, true)
	res, err := s.handleSearchAPI(context.Background(), call(map[string]interface{}{"query": "counter", "kind": "struct"}))
	require.NoError(t, err)

	var out executor.SearchResult
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &out))
	require.NotEmpty(t, out.Results)
	for _, r := range out.Results {
		assert.Equal(t, "struct", r.Kind)
	}
}

func TestSearchAPIValidation(t *testing.T) {
	s := newServer(t, true)
	for name, args := range map[string]map[string]interface{}{
		"missing query": {},
		"bad limit":     {"query": "x", "limit": float64(0)},
		"unknown kind":  {"query": "x", "kind": "widget"},
	} {
		res, err := s.handleSearchAPI(context.Background(), call(args))
		require.NoError(t, err, name)
		assert.True(t, res.IsError, name)
	}
}

func TestToolsReportMissingIndex(t *testing.T) {
	s := newServer(t, false)
	res, err := s.handleSearchAPI(context.Background(), call(map[string]interface{}{"query": "console"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "no index")

	res, err = s.handleIndexStatus(context.Background(), call(nil))
	require.NoError(t, err)
	assert.Contains(t, text(t, res), `"loaded": false`)
}
