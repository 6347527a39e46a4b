// Package cache memoizes search results in two tiers: an in-process LRU and
// an optional shared Redis tier guarded by a circuit breaker. Keys include
// the snapshot version, so a reload never serves results of an older index.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/resilience"
)

const keyPrefix = "search:"

// Status tells where a result came from.
type Status string

const (
	StatusLocal  Status = "local"
	StatusRemote Status = "remote"
	StatusMiss   Status = "miss"
)

// Remote is the shared tier. *pkgredis.Client satisfies it.
type Remote interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// Stats is reported by the cache stats endpoint.
type Stats struct {
	LocalHits    int64  `json:"local_hits"`
	RemoteHits   int64  `json:"remote_hits"`
	Misses       int64  `json:"misses"`
	LocalEntries int    `json:"local_entries"`
	Remote       bool   `json:"remote"`
	Breaker      string `json:"breaker,omitempty"`
}

type QueryCache struct {
	local   *lru.Cache[string, *executor.SearchResult]
	remote  Remote
	breaker *resilience.CircuitBreaker
	cfg     config.RedisConfig
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger

	localHits  atomic.Int64
	remoteHits atomic.Int64
	misses     atomic.Int64
}

// New builds a cache. remote may be nil, leaving only the local tier.
func New(remote Remote, cfg config.RedisConfig, m *metrics.Metrics) (*QueryCache, error) {
	if m == nil {
		m = metrics.NewNop()
	}
	size := cfg.LocalEntries
	if size <= 0 {
		size = 1024
	}
	local, err := lru.New[string, *executor.SearchResult](size)
	if err != nil {
		return nil, fmt.Errorf("creating local cache: %w", err)
	}
	c := &QueryCache{
		local:   local,
		remote:  remote,
		cfg:     cfg,
		metrics: m,
		logger:  slog.Default().With("component", "query-cache"),
	}
	if remote != nil {
		c.breaker = resilience.NewCircuitBreaker("redis-cache", resilience.CircuitBreakerConfig{
			FailureThreshold: 5,
			ResetTimeout:     30 * time.Second,
			OnStateChange: func(_, to resilience.State) {
				m.CircuitBreakerState.WithLabelValues("redis-cache").Set(float64(to))
			},
		})
	}
	return c, nil
}

// Key derives the cache key for a query against a snapshot version.
// Queries that parse identically share a key.
func Key(version string, q *parser.Query, limit int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|limit=%d", q.Key(), limit)))
	return fmt.Sprintf("%s%s:%x", keyPrefix, version, sum[:16])
}

// Get looks the key up in the local tier, then the remote tier. A remote
// hit is copied into the local tier.
func (c *QueryCache) Get(ctx context.Context, key string) (*executor.SearchResult, Status) {
	if res, ok := c.local.Get(key); ok {
		c.localHits.Add(1)
		c.metrics.CacheHitsTotal.WithLabelValues(string(StatusLocal)).Inc()
		return res, StatusLocal
	}
	if res, ok := c.getRemote(ctx, key); ok {
		c.local.Add(key, res)
		c.remoteHits.Add(1)
		c.metrics.CacheHitsTotal.WithLabelValues(string(StatusRemote)).Inc()
		return res, StatusRemote
	}
	c.misses.Add(1)
	c.metrics.CacheMissesTotal.Inc()
	return nil, StatusMiss
}

func (c *QueryCache) getRemote(ctx context.Context, key string) (*executor.SearchResult, bool) {
	if c.remote == nil {
		return nil, false
	}
	var data string
	err := c.breaker.Execute(func() error {
		opCtx, cancel := c.opContext(ctx)
		defer cancel()
		v, err := c.remote.Get(opCtx, key)
		if pkgredis.IsNilError(err) {
			return nil
		}
		data = v
		return err
	})
	if err != nil {
		c.logger.Warn("cache get failed", "key", key, "error", err)
		return nil, false
	}
	if data == "" {
		return nil, false
	}
	var result executor.SearchResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		return nil, false
	}
	return &result, true
}

func (c *QueryCache) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.OpTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.cfg.OpTimeout)
}

// Set stores a result in both tiers. Remote failures are logged only.
func (c *QueryCache) Set(ctx context.Context, key string, result *executor.SearchResult) {
	c.local.Add(key, result)
	if c.remote == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return resilience.WithTimeout(ctx, c.cfg.OpTimeout, "cache set", func(ctx context.Context) error {
			return c.remote.Set(ctx, key, data, c.cfg.CacheTTL)
		})
	})
	if err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns a cached result or computes it once per key even
// under concurrent identical requests.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	key string,
	computeFn func() (*executor.SearchResult, error),
) (*executor.SearchResult, Status, error) {
	if result, status := c.Get(ctx, key); result != nil {
		return result, status, nil
	}
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if result, ok := c.local.Get(key); ok {
			return result, nil
		}
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, key, result)
		return result, nil
	})
	if err != nil {
		return nil, StatusMiss, err
	}
	return val.(*executor.SearchResult), StatusMiss, nil
}

// Purge empties the local tier. It is called when the index is swapped.
func (c *QueryCache) Purge() {
	c.local.Purge()
}

// Invalidate empties both tiers.
func (c *QueryCache) Invalidate(ctx context.Context) (int64, error) {
	c.local.Purge()
	if c.remote == nil {
		return 0, nil
	}
	deleted, err := c.remote.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

func (c *QueryCache) Stats() Stats {
	st := Stats{
		LocalHits:    c.localHits.Load(),
		RemoteHits:   c.remoteHits.Load(),
		Misses:       c.misses.Load(),
		LocalEntries: c.local.Len(),
		Remote:       c.remote != nil,
	}
	if c.breaker != nil {
		st.Breaker = c.breaker.GetState().String()
	}
	return st
}
