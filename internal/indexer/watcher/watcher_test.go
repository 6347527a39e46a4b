package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
)

type countingReloader struct {
	calls atomic.Int32
	done  chan string
}

func newCountingReloader() *countingReloader {
	return &countingReloader{done: make(chan string, 16)}
}

func (r *countingReloader) Reload(_ context.Context, trigger string) (*index.Snapshot, error) {
	r.calls.Add(1)
	r.done <- trigger
	return nil, nil
}

func start(t *testing.T, r Reloader, cfg config.IndexConfig) {
	t.Helper()
	w, err := New(r, cfg)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		assert.NoError(t, w.Run(ctx))
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
}

func TestCoalescesBurstIntoOneReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "search-index.js")
	require.NoError(t, os.WriteFile(path, []byte("v0"), 0o644))

	r := newCountingReloader()
	start(t, r, config.IndexConfig{Path: path, Debounce: 50 * time.Millisecond})

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))
	}
	select {
	case trigger := <-r.done:
		assert.Equal(t, "watch", trigger)
	case <-time.After(2 * time.Second):
		t.Fatal("no reload after change")
	}
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), r.calls.Load())
}

func TestIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "search-index.js")
	require.NoError(t, os.WriteFile(path, []byte("v0"), 0o644))

	r := newCountingReloader()
	start(t, r, config.IndexConfig{Path: path, Debounce: 20 * time.Millisecond})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, r.calls.Load())
}

func TestDataDirReactsToContainersOnly(t *testing.T) {
	dir := t.TempDir()
	r := newCountingReloader()
	start(t, r, config.IndexConfig{DataDir: dir, Debounce: 20 * time.Millisecond})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "idx_1.sidx.tmp"), []byte("x"), 0o644))
	time.Sleep(150 * time.Millisecond)
	assert.Zero(t, r.calls.Load())

	require.NoError(t, os.Rename(filepath.Join(dir, "idx_1.sidx.tmp"), filepath.Join(dir, "idx_1.sidx")))
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("no reload after new container")
	}
}

func TestNewFailsForMissingDir(t *testing.T) {
	_, err := New(newCountingReloader(), config.IndexConfig{DataDir: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}
