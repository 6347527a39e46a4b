// Package executor runs search queries against the active index snapshot
// and tracks per-client query sessions so that superseded results can be
// discarded.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/presenter"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/metrics"
)

type SearchResult struct {
	Query    string             `json:"query"`
	Version  string             `json:"version"`
	Degraded bool               `json:"degraded"`
	Total    int                `json:"total"`
	Results  []presenter.Record `json:"results"`
	Took     time.Duration      `json:"-"`
}

// SnapshotSource yields the snapshot to query. *indexer.Engine satisfies
// it.
type SnapshotSource interface {
	Snapshot() (*index.Snapshot, error)
}

type Executor struct {
	source            SnapshotSource
	opts              ranker.Options
	maxResults        int
	parallelThreshold int
	metrics           *metrics.Metrics
	logger            *slog.Logger
}

func New(source SnapshotSource, cfg config.SearchConfig, m *metrics.Metrics) *Executor {
	if m == nil {
		m = metrics.NewNop()
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = presenter.DefaultMaxResults
	}
	return &Executor{
		source:            source,
		opts:              ranker.OptionsFromConfig(cfg),
		maxResults:        maxResults,
		parallelThreshold: cfg.ParallelThreshold,
		metrics:           m,
		logger:            slog.Default().With("component", "query-executor"),
	}
}

// Snapshot returns the snapshot queries currently run against.
func (e *Executor) Snapshot() (*index.Snapshot, error) {
	return e.source.Snapshot()
}

// Execute parses raw and runs it against the current snapshot. limit is
// clamped to the configured maximum; non-positive means the maximum.
func (e *Executor) Execute(ctx context.Context, raw string, limit int) (*SearchResult, error) {
	snap, err := e.source.Snapshot()
	if err != nil {
		e.metrics.SearchQueriesTotal.WithLabelValues("unavailable").Inc()
		return nil, err
	}
	return e.Run(ctx, parser.Parse(raw), snap, limit)
}

// Run executes an already parsed query against snap.
func (e *Executor) Run(ctx context.Context, q *parser.Query, snap *index.Snapshot, limit int) (*SearchResult, error) {
	start := time.Now()
	if limit <= 0 || limit > e.maxResults {
		limit = e.maxResults
	}

	plan := ranker.Prepare(q, snap, e.opts)
	var (
		matches []ranker.Match
		total   int
		err     error
	)
	if parts := plan.Partitions(); len(parts) > 1 && e.parallelThreshold > 0 && len(snap.Index.Items) >= e.parallelThreshold {
		matches, total, err = e.rankPartitions(ctx, plan, parts, limit)
		if err != nil {
			e.metrics.SearchQueriesTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("ranking partitions: %w", err)
		}
	} else {
		matches = plan.All()
		total = len(matches)
	}

	res := &SearchResult{
		Query:    q.Raw,
		Version:  snap.Version,
		Degraded: q.Degraded,
		Total:    total,
		Results:  presenter.Present(matches, snap, limit),
		Took:     time.Since(start),
	}

	outcome := "ok"
	switch {
	case q.Degraded:
		outcome = "degraded"
	case total == 0:
		outcome = "empty"
	}
	e.metrics.SearchQueriesTotal.WithLabelValues(outcome).Inc()
	e.metrics.SearchResultsCount.Observe(float64(len(res.Results)))

	e.logger.Debug("query executed",
		"query", q.Raw,
		"name", q.Name,
		"signature", q.Sig != nil,
		"degraded", q.Degraded,
		"total", total,
		"results", len(res.Results),
		"took", res.Took,
	)
	return res, nil
}
