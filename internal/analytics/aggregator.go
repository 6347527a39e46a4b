// Package analytics collects search and index-load events and aggregates
// them into the stats served by the analytics endpoint. Events arrive
// in-process from the search handler or from Kafka in the analytics
// service.
package analytics

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/kafka"
)

const (
	latencyWindow = 10000
	maxTracked    = 50000
)

type AggregatedStats struct {
	TotalSearches     int64        `json:"total_searches"`
	StaleDiscards     int64        `json:"stale_discards"`
	DegradedQueries   int64        `json:"degraded_queries"`
	SignatureQueries  int64        `json:"signature_queries"`
	ZeroResultCount   int64        `json:"zero_result_count"`
	CacheHits         int64        `json:"cache_hits"`
	CacheMisses       int64        `json:"cache_misses"`
	AvgLatencyMs      float64      `json:"avg_latency_ms"`
	P50LatencyMs      int64        `json:"p50_latency_ms"`
	P95LatencyMs      int64        `json:"p95_latency_ms"`
	P99LatencyMs      int64        `json:"p99_latency_ms"`
	TopQueries        []QueryCount `json:"top_queries"`
	ZeroResultQueries []QueryCount `json:"zero_result_queries"`
	QueriesPerMinute  float64      `json:"queries_per_minute"`
	IndexLoads        int64        `json:"index_loads"`
	IndexLoadFailures int64        `json:"index_load_failures"`
	LastLoad          *LoadEvent   `json:"last_load,omitempty"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

type Aggregator struct {
	totalSearches    atomic.Int64
	staleDiscards    atomic.Int64
	degraded         atomic.Int64
	signatureQueries atomic.Int64
	zeroResults      atomic.Int64
	cacheHits        atomic.Int64
	cacheMisses      atomic.Int64
	loads            atomic.Int64
	loadFailures     atomic.Int64

	mu                sync.RWMutex
	latencies         []int64
	latencyNext       int
	queryCounts       map[string]int64
	zeroResultQueries map[string]int64
	lastLoad          *LoadEvent
	startTime         time.Time

	logger *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		latencies:         make([]int64, 0, latencyWindow),
		queryCounts:       make(map[string]int64),
		zeroResultQueries: make(map[string]int64),
		startTime:         time.Now(),
		logger:            slog.Default().With("component", "analytics-aggregator"),
	}
}

// Consume feeds the aggregator from consumer until ctx is cancelled.
func (a *Aggregator) Consume(ctx context.Context, consumer *kafka.Consumer) error {
	a.logger.Info("analytics aggregator consuming")
	return consumer.Start(ctx)
}

// HandleEvent decodes a Kafka message by its type field and records it.
// Undecodable messages are logged and skipped so they are committed.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		var envelope struct {
			Type EventType `json:"type"`
		}
		if err := json.Unmarshal(value, &envelope); err != nil {
			agg.logger.Error("failed to decode analytics event", "error", err)
			return nil
		}
		switch envelope.Type {
		case EventSearch, EventStale:
			event, err := kafka.DecodeJSON[SearchEvent](value)
			if err != nil {
				agg.logger.Error("failed to decode search event", "error", err)
				return nil
			}
			agg.TrackSearch(event)
		case EventIndexLoad:
			event, err := kafka.DecodeJSON[LoadEvent](value)
			if err != nil {
				agg.logger.Error("failed to decode load event", "error", err)
				return nil
			}
			agg.trackLoad(event)
		default:
			agg.logger.Warn("unknown analytics event", "type", envelope.Type, "key", string(key))
		}
		return nil
	}
}

func (a *Aggregator) TrackSearch(event SearchEvent) {
	if event.Type == EventStale {
		a.staleDiscards.Add(1)
		return
	}
	a.totalSearches.Add(1)
	if event.Degraded {
		a.degraded.Add(1)
	}
	if event.Signature {
		a.signatureQueries.Add(1)
	}
	switch event.CacheStatus {
	case "local", "remote":
		a.cacheHits.Add(1)
	case "miss":
		a.cacheMisses.Add(1)
	}
	if event.Total == 0 {
		a.zeroResults.Add(1)
	}

	query := strings.TrimSpace(event.Query)
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.latencies) < latencyWindow {
		a.latencies = append(a.latencies, event.LatencyMs)
	} else {
		a.latencies[a.latencyNext] = event.LatencyMs
		a.latencyNext = (a.latencyNext + 1) % latencyWindow
	}
	bump(a.queryCounts, query)
	if event.Total == 0 {
		bump(a.zeroResultQueries, query)
	}
}

// bump counts query unless the table is full of other queries.
func bump(counts map[string]int64, query string) {
	if _, ok := counts[query]; !ok && len(counts) >= maxTracked {
		return
	}
	counts[query]++
}

// RecordLoad makes the aggregator an indexer.LoadRecorder.
func (a *Aggregator) RecordLoad(_ context.Context, rec indexer.LoadRecord) error {
	a.trackLoad(NewLoadEvent(rec))
	return nil
}

func (a *Aggregator) trackLoad(event LoadEvent) {
	a.loads.Add(1)
	if event.Error != "" {
		a.loadFailures.Add(1)
	}
	a.mu.Lock()
	a.lastLoad = &event
	a.mu.Unlock()
}

func (a *Aggregator) Stats() AggregatedStats {
	return a.StatsTop(10)
}

// StatsTop is Stats with top query lists of up to n entries.
func (a *Aggregator) StatsTop(n int) AggregatedStats {
	stats := AggregatedStats{
		TotalSearches:     a.totalSearches.Load(),
		StaleDiscards:     a.staleDiscards.Load(),
		DegradedQueries:   a.degraded.Load(),
		SignatureQueries:  a.signatureQueries.Load(),
		ZeroResultCount:   a.zeroResults.Load(),
		CacheHits:         a.cacheHits.Load(),
		CacheMisses:       a.cacheMisses.Load(),
		IndexLoads:        a.loads.Load(),
		IndexLoadFailures: a.loadFailures.Load(),
	}

	a.mu.RLock()
	sorted := append([]int64(nil), a.latencies...)
	stats.TopQueries = topN(a.queryCounts, n)
	stats.ZeroResultQueries = topN(a.zeroResultQueries, n)
	if a.lastLoad != nil {
		last := *a.lastLoad
		stats.LastLoad = &last
	}
	a.mu.RUnlock()

	if len(sorted) > 0 {
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	if elapsed := time.Since(a.startTime).Minutes(); elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalSearches) / elapsed
	}
	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topN returns the n most frequent queries, ties broken by query text.
func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Query < result[j].Query
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
