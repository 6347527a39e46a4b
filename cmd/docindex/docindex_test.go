package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/descriptor"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/indextest"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/executor"
)

func writeBlob(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "search-index.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestInspect(t *testing.T) {
	path := writeBlob(t, indextest.ScenarioBlob())

	out, err := run(t, "inspect", "--json=false", path)
	require.NoError(t, err)
	assert.Contains(t, out, "14 in 1 crate(s)")
	assert.Contains(t, out, "The main module and entrypoint")

	out, err = run(t, "inspect", "--json", path)
	require.NoError(t, err)
	var rep inspectReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	require.Len(t, rep.Crates, 1)
	assert.Equal(t, 14, rep.Crates[0].Items)
	assert.Equal(t, 7, rep.Crates[0].Kinds["fn"])
	assert.Equal(t, 2, rep.Crates[0].Kinds["method"])
	assert.Equal(t, "json", rep.Format)
}

func TestQuery(t *testing.T) {
	path := writeBlob(t, indextest.ScenarioBlob())

	out, err := run(t, "query", "--json=false", "--limit", "20", path, "fn() -> usize")
	require.NoError(t, err)
	assert.Contains(t, out, "os::sbi::console_getchar")
	assert.NotContains(t, out, "console_putchar")

	out, err = run(t, "query", "--json", "--limit", "1", path, "console")
	require.NoError(t, err)
	var res executor.SearchResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2, res.Total)
	require.Len(t, res.Results, 1)

	out, err = run(t, "query", "--json=false", "--limit", "20", path, "zzzzzzzz")
	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestQueryRejectsCorruptBlob(t *testing.T) {
	path := writeBlob(t, []byte(`{"c1":{"doc":"","t":"F","n":["f"],"q":[],"d":[""],"i":[3],"f":[0],"p":[[15,"bool"]]}}`))
	_, err := run(t, "query", "--json=false", "--limit", "20", path, "f")
	assert.Error(t, err)
}

func TestPackWritesLoadableContainer(t *testing.T) {
	path := writeBlob(t, indextest.ScenarioBlob())
	dir := t.TempDir()

	out, err := run(t, "pack", "--out", dir, path)
	require.NoError(t, err)
	assert.Contains(t, out, "14 items")

	latest, err := segment.Latest(dir)
	require.NoError(t, err)
	require.NotEmpty(t, latest)
	blob, err := segment.ReadFile(latest)
	require.NoError(t, err)
	assert.Equal(t, segment.FormatContainer, blob.Format)
}

func TestDiff(t *testing.T) {
	oldPath := writeBlob(t, indextest.ScenarioBlob())

	out, err := run(t, "diff", "--summary=false", "--context", "3", oldPath, oldPath)
	require.NoError(t, err)
	assert.Contains(t, out, "API surface unchanged.")

	b := indextest.ScenarioBuilder()
	b.Crate("std", "")
	b.Add(descriptor.ItemSpec{Kind: descriptor.KindMacro, Name: "vec"})
	idx, err := b.Build()
	require.NoError(t, err)
	data, err := descriptor.Encode(idx)
	require.NoError(t, err)
	newPath := writeBlob(t, data)

	out, err = run(t, "diff", "--summary", "--context", "3", oldPath, newPath)
	require.NoError(t, err)
	assert.Contains(t, out, "1 added, 0 removed, 0 changed")
	assert.Contains(t, out, "+ macro std::vec")

	out, err = run(t, "diff", "--summary=false", "--context", "3", oldPath, newPath)
	require.NoError(t, err)
	assert.Contains(t, out, "+++ api@")
}
