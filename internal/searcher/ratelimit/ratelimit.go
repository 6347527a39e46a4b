// Package ratelimit throttles search queries per client. Each client gets
// a token bucket; buckets of the least recently seen clients are evicted
// once MaxClients is reached.
package ratelimit

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
)

type Limiter struct {
	mu      sync.Mutex
	buckets *lru.Cache[string, *rate.Limiter]
	limit   rate.Limit
	burst   int
}

func New(cfg config.RateLimitConfig) (*Limiter, error) {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 50
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = int(rps)
	}
	clients := cfg.MaxClients
	if clients <= 0 {
		clients = 10000
	}
	buckets, err := lru.New[string, *rate.Limiter](clients)
	if err != nil {
		return nil, fmt.Errorf("creating bucket cache: %w", err)
	}
	return &Limiter{
		buckets: buckets,
		limit:   rate.Limit(rps),
		burst:   burst,
	}, nil
}

// Allow consumes one token from key's bucket.
func (l *Limiter) Allow(key string) bool {
	return l.bucket(key).Allow()
}

func (l *Limiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.buckets.Get(key); ok {
		return b
	}
	b := rate.NewLimiter(l.limit, l.burst)
	l.buckets.Add(key, b)
	return b
}

// Reset forgets key's bucket.
func (l *Limiter) Reset(key string) {
	l.buckets.Remove(key)
}

func (l *Limiter) Clients() int {
	return l.buckets.Len()
}
