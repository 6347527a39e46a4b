// Package consumer reloads the search index when a new version is
// announced on the index.published topic.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/resilience"
)

// Loader is satisfied by *indexer.Engine.
type Loader interface {
	LoadFile(ctx context.Context, path, trigger string) (*index.Snapshot, error)
}

// ReloadConsumer drives index reloads from Kafka.
type ReloadConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

func New(kafkaConsumer *kafka.Consumer) *ReloadConsumer {
	return &ReloadConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "reload-consumer"),
	}
}

// Start consumes until ctx is cancelled.
func (rc *ReloadConsumer) Start(ctx context.Context) error {
	rc.logger.Info("reload consumer starting")
	return rc.consumer.Start(ctx)
}

// HandleMessage loads the announced container. A missing file is retried
// briefly since shared volumes can lag the announcement; a corrupt blob
// is logged and skipped so the message is committed and the current
// snapshot keeps serving.
func HandleMessage(loader Loader, retry resilience.RetryConfig) kafka.MessageHandler {
	logger := slog.Default().With("component", "reload-consumer")
	retry.Retryable = func(err error) bool {
		return errors.Is(err, fs.ErrNotExist)
	}
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ingestion.IndexPublishedEvent](value)
		if err != nil {
			logger.Error("failed to decode index event", "error", err, "key", string(key))
			return nil
		}
		if event.Path == "" {
			logger.Error("index event without path", "version", event.Version)
			return nil
		}

		start := time.Now()
		var snap *index.Snapshot
		err = resilience.Retry(ctx, "index reload", retry, func() error {
			s, err := loader.LoadFile(ctx, event.Path, "kafka")
			snap = s
			return err
		})
		switch {
		case err == nil:
		case errors.Is(err, apperrors.ErrCorruptIndex):
			logger.Error("announced index is corrupt, skipping", "version", event.Version, "path", event.Path, "error", err)
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			return fmt.Errorf("reloading version %s: %w", event.Version, err)
		}

		if snap.Version != event.Version {
			logger.Warn("loaded version differs from announcement", "announced", event.Version, "loaded", snap.Version)
		}
		logger.Info("index reloaded from announcement",
			"version", snap.Version,
			"path", event.Path,
			"source", event.Source,
			"took", time.Since(start),
		)
		return nil
	}
}
