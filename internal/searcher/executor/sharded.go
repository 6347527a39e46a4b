package executor

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/merger"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/ranker"
)

// rankPartitions scores each crate partition on its own goroutine and
// merges the sorted partitions into the top limit matches. Because
// ranker.Less is a total order the result equals sequential ranking.
func (e *Executor) rankPartitions(ctx context.Context, plan *ranker.Plan, parts []ranker.Partition, limit int) ([]ranker.Match, int, error) {
	results := make([][]ranker.Match, len(parts))
	g, gctx := errgroup.WithContext(ctx)
	for i, part := range parts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = plan.Score(part)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	merged := merger.Merge(results, limit)
	e.logger.Debug("partitioned query executed",
		"query", plan.Query().Raw,
		"partitions", len(parts),
		"total", total,
		"kept", len(merged),
	)
	return merged, total, nil
}
