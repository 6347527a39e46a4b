package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/presenter"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
)

type mapRemote struct {
	mu   sync.Mutex
	data map[string]string
	fail bool
	gets int
}

func newMapRemote() *mapRemote {
	return &mapRemote{data: make(map[string]string)}
}

func (m *mapRemote) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.fail {
		return "", errors.New("connection refused")
	}
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *mapRemote) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("connection refused")
	}
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	return nil
}

func (m *mapRemote) FlushByPattern(_ context.Context, pattern string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	var n int64
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

func result(query string) *executor.SearchResult {
	return &executor.SearchResult{
		Query:   query,
		Version: "v1",
		Total:   1,
		Results: []presenter.Record{{Path: "os::sbi::console_getchar", Kind: "fn", ScoreTier: "substring"}},
	}
}

func redisConfig() config.RedisConfig {
	return config.RedisConfig{LocalEntries: 8, CacheTTL: time.Minute, OpTimeout: time.Second}
}

func TestKeyVariesWithVersionAndLimit(t *testing.T) {
	q := parser.Parse("console")
	a := Key("v1", q, 10)
	assert.True(t, strings.HasPrefix(a, "search:v1:"))
	assert.Equal(t, a, Key("v1", parser.Parse("  console "), 10))
	assert.NotEqual(t, a, Key("v2", q, 10))
	assert.NotEqual(t, a, Key("v1", q, 20))
	assert.NotEqual(t, a, Key("v1", parser.Parse("consol"), 10))
	assert.NotEqual(t, a, Key("v1", parser.Parse("console("), 10), "degraded queries are cached apart")
}

func TestLocalOnly(t *testing.T) {
	c, err := New(nil, redisConfig(), nil)
	require.NoError(t, err)
	ctx := context.Background()

	res, status := c.Get(ctx, "k")
	assert.Nil(t, res)
	assert.Equal(t, StatusMiss, status)

	c.Set(ctx, "k", result("console"))
	res, status = c.Get(ctx, "k")
	require.NotNil(t, res)
	assert.Equal(t, StatusLocal, status)
	assert.Equal(t, "console", res.Query)

	c.Purge()
	_, status = c.Get(ctx, "k")
	assert.Equal(t, StatusMiss, status)

	st := c.Stats()
	assert.Equal(t, int64(1), st.LocalHits)
	assert.Equal(t, int64(2), st.Misses)
	assert.False(t, st.Remote)
	assert.Empty(t, st.Breaker)
}

func TestRemoteTierFillsLocal(t *testing.T) {
	remote := newMapRemote()
	writer, err := New(remote, redisConfig(), nil)
	require.NoError(t, err)
	ctx := context.Background()
	writer.Set(ctx, "k", result("console"))

	reader, err := New(remote, redisConfig(), nil)
	require.NoError(t, err)
	res, status := reader.Get(ctx, "k")
	require.NotNil(t, res)
	assert.Equal(t, StatusRemote, status)
	assert.Equal(t, result("console").Results, res.Results)

	_, status = reader.Get(ctx, "k")
	assert.Equal(t, StatusLocal, status)
	assert.Equal(t, "closed", reader.Stats().Breaker)
}

func TestRemoteFailureFallsBack(t *testing.T) {
	remote := newMapRemote()
	remote.fail = true
	c, err := New(remote, redisConfig(), nil)
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, status := c.Get(ctx, "missing")
		assert.Equal(t, StatusMiss, status)
	}
	assert.Equal(t, "open", c.Stats().Breaker)
	assert.Less(t, remote.gets, 10, "open breaker stops calling the remote")

	c.Set(ctx, "k", result("console"))
	_, status := c.Get(ctx, "k")
	assert.Equal(t, StatusLocal, status)
}

func TestGetOrComputeSingleflight(t *testing.T) {
	c, err := New(nil, redisConfig(), nil)
	require.NoError(t, err)

	var calls atomic.Int32
	release := make(chan struct{})
	compute := func() (*executor.SearchResult, error) {
		calls.Add(1)
		<-release
		return result("console"), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, _, err := c.GetOrCompute(context.Background(), "k", compute)
			assert.NoError(t, err)
			assert.Equal(t, "console", res.Query)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.LessOrEqual(t, calls.Load(), int32(2))

	_, status, err := c.GetOrCompute(context.Background(), "k", compute)
	require.NoError(t, err)
	assert.Equal(t, StatusLocal, status)
}

func TestGetOrComputePropagatesError(t *testing.T) {
	c, err := New(nil, redisConfig(), nil)
	require.NoError(t, err)
	boom := errors.New("boom")
	_, status, err := c.GetOrCompute(context.Background(), "k", func() (*executor.SearchResult, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StatusMiss, status)

	_, status = c.Get(context.Background(), "k")
	assert.Equal(t, StatusMiss, status, "failures are not cached")
}

func TestInvalidate(t *testing.T) {
	remote := newMapRemote()
	remote.data["other:key"] = "x"
	c, err := New(remote, redisConfig(), nil)
	require.NoError(t, err)
	ctx := context.Background()
	c.Set(ctx, Key("v1", parser.Parse("a"), 1), result("a"))
	c.Set(ctx, Key("v1", parser.Parse("b"), 1), result("b"))

	n, err := c.Invalidate(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 0, c.Stats().LocalEntries)
	assert.Contains(t, remote.data, "other:key")
}
