package executor

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/descriptor"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/indextest"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
)

type staticSource struct {
	snap *index.Snapshot
}

func (s staticSource) Snapshot() (*index.Snapshot, error) {
	if s.snap == nil {
		return nil, apperrors.ErrIndexNotLoaded
	}
	return s.snap, nil
}

func searchConfig() config.SearchConfig {
	return config.SearchConfig{
		MaxResults:  200,
		Unify:       true,
		FuzzyShort:  1,
		FuzzyMedium: 2,
		FuzzyLong:   3,
	}
}

func multiCrate(t *testing.T) *index.Snapshot {
	t.Helper()
	b := indextest.ScenarioBuilder().Crate("util", "Helpers")
	usize := descriptor.PathCode(b.Primitive("usize"))
	b.Add(descriptor.ItemSpec{Kind: descriptor.KindFunction, Name: "console_log", Desc: "Logs to the console"})
	b.Module("util::io")
	b.Add(descriptor.ItemSpec{
		Kind:  descriptor.KindFunction,
		Name:  "read_count",
		Desc:  "Reads a count",
		Types: descriptor.Fn(nil, []descriptor.TypeCode{usize}, 0),
	})
	idx, err := b.Build()
	require.NoError(t, err)
	return index.Build("multi", idx)
}

func TestExecuteFailsClosed(t *testing.T) {
	e := New(staticSource{}, searchConfig(), nil)
	_, err := e.Execute(context.Background(), "console", 10)
	assert.ErrorIs(t, err, apperrors.ErrIndexNotLoaded)
}

func TestExecuteScenario(t *testing.T) {
	snap := index.Build("v1", indextest.Scenario())
	e := New(staticSource{snap}, searchConfig(), nil)

	res, err := e.Execute(context.Background(), "console", 0)
	require.NoError(t, err)
	assert.Equal(t, "console", res.Query)
	assert.Equal(t, "v1", res.Version)
	assert.Equal(t, 2, res.Total)
	require.Len(t, res.Results, 2)
	assert.Equal(t, "os::sbi::console_getchar", res.Results[0].Path)
	assert.False(t, res.Degraded)

	res, err = e.Execute(context.Background(), "console", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total, "total counts matches beyond the limit")
	assert.Len(t, res.Results, 1)

	res, err = e.Execute(context.Background(), "fn(usize", 10)
	require.NoError(t, err)
	assert.True(t, res.Degraded)
}

func TestPartitionedMatchesSequential(t *testing.T) {
	snap := multiCrate(t)
	seqCfg := searchConfig()
	parCfg := searchConfig()
	parCfg.ParallelThreshold = 1

	sequential := New(staticSource{snap}, seqCfg, nil)
	parallel := New(staticSource{snap}, parCfg, nil)

	for _, raw := range []string{"console", "count", "fn() -> usize", "-> usize", "o", "crate:util console", "fn(T) -> T"} {
		t.Run(raw, func(t *testing.T) {
			for _, limit := range []int{1, 3, 0} {
				a, err := sequential.Execute(context.Background(), raw, limit)
				require.NoError(t, err)
				b, err := parallel.Execute(context.Background(), raw, limit)
				require.NoError(t, err)
				assert.Equal(t, a.Total, b.Total)
				assert.Equal(t, a.Results, b.Results)
			}
		})
	}
}

func TestPartitionedHonoursCancellation(t *testing.T) {
	cfg := searchConfig()
	cfg.ParallelThreshold = 1
	e := New(staticSource{multiCrate(t)}, cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Execute(ctx, "console", 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSessionDiscardsStaleResults(t *testing.T) {
	s := &Session{}
	first := s.Next()
	second := s.Next()
	assert.Greater(t, second, first)

	assert.False(t, s.Deliver(first), "superseded result is dropped")
	assert.True(t, s.Deliver(second))

	assert.True(t, s.Observe(10))
	assert.False(t, s.Observe(9), "older client sequence is rejected")
	assert.True(t, s.Observe(10))
	assert.False(t, s.Deliver(second))
	assert.True(t, s.Deliver(10))
	assert.Equal(t, uint64(11), s.Next())
}

func TestSessionConcurrentNext(t *testing.T) {
	s := &Session{}
	var wg sync.WaitGroup
	seen := make(chan uint64, 800)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				seen <- s.Next()
			}
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[uint64]struct{})
	for v := range seen {
		unique[v] = struct{}{}
	}
	assert.Len(t, unique, 800)
	assert.Equal(t, uint64(800), s.Latest())
	assert.True(t, s.Deliver(800))
}

func TestTrackerEvicts(t *testing.T) {
	tr, err := NewTracker(2)
	require.NoError(t, err)

	a := tr.Session("a")
	assert.Same(t, a, tr.Session("a"))
	tr.Session("b")
	tr.Session("c")
	assert.Equal(t, 2, tr.Len())
	assert.NotSame(t, a, tr.Session("a"), "least recently used session was evicted")
}
