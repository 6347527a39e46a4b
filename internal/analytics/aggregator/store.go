// Package aggregator persists analytics to PostgreSQL: periodic snapshots
// of the aggregated stats and the history of index loads.
package aggregator

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/postgres"
)

// Store writes to the analytics_snapshots and index_loads tables created
// by postgres.Client.EnsureSchema.
type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

func NewStore(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "analytics-store"),
	}
}

func (s *Store) SaveSnapshot(ctx context.Context, stats analytics.AggregatedStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshaling stats: %w", err)
	}
	_, err = s.db.DB.ExecContext(ctx,
		`INSERT INTO analytics_snapshots (data, captured_at) VALUES ($1, $2)`,
		data, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving analytics snapshot: %w", err)
	}
	s.logger.Info("analytics snapshot saved",
		"total_searches", stats.TotalSearches,
		"index_loads", stats.IndexLoads,
	)
	return nil
}

// LatestSnapshot returns nil, nil if no snapshot exists yet.
func (s *Store) LatestSnapshot(ctx context.Context) (*analytics.AggregatedStats, error) {
	var data []byte
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT data FROM analytics_snapshots ORDER BY captured_at DESC LIMIT 1`,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest snapshot: %w", err)
	}
	var stats analytics.AggregatedStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return &stats, nil
}

// RecordLoad makes the store an indexer.LoadRecorder.
func (s *Store) RecordLoad(ctx context.Context, rec indexer.LoadRecord) error {
	at := rec.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.DB.ExecContext(ctx,
		`INSERT INTO index_loads (version, source, trigger, crates, items, warnings, duration_ms, error, loaded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.Version, rec.Source, rec.Trigger, rec.Crates, rec.Items, rec.Warnings,
		rec.Duration.Milliseconds(), rec.Error, at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording index load: %w", err)
	}
	return nil
}

// RecentLoads returns the last limit load attempts, newest first.
func (s *Store) RecentLoads(ctx context.Context, limit int) ([]analytics.LoadEvent, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT version, source, trigger, crates, items, warnings, duration_ms, error, loaded_at
		 FROM index_loads ORDER BY loaded_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing index loads: %w", err)
	}
	defer rows.Close()

	var loads []analytics.LoadEvent
	for rows.Next() {
		ev := analytics.LoadEvent{Type: analytics.EventIndexLoad}
		if err := rows.Scan(&ev.Version, &ev.Source, &ev.Trigger, &ev.Crates, &ev.Items,
			&ev.Warnings, &ev.DurationMs, &ev.Error, &ev.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning index load row: %w", err)
		}
		loads = append(loads, ev)
	}
	return loads, rows.Err()
}

// StartPeriodicSave snapshots agg every interval and once more on shutdown.
func (s *Store) StartPeriodicSave(ctx context.Context, agg *analytics.Aggregator, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := s.SaveSnapshot(ctx, agg.Stats()); err != nil {
					s.logger.Error("periodic snapshot failed", "error", err)
				}
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				if err := s.SaveSnapshot(shutdownCtx, agg.Stats()); err != nil {
					s.logger.Error("final snapshot failed", "error", err)
				}
				cancel()
				return
			}
		}
	}()
	s.logger.Info("periodic snapshot started", "interval", interval)
}
