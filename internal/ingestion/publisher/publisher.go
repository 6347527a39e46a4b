// Package publisher packs validated blobs into containers, records each
// version once in PostgreSQL and announces it on Kafka. Publishing the
// same content twice is detected by its fingerprint and is a no-op.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/kafka"
)

// VersionStore remembers published versions. Lookup returns nil, nil for
// an unknown version. Record must be idempotent.
type VersionStore interface {
	Lookup(ctx context.Context, version string) (*ingestion.Version, error)
	Record(ctx context.Context, v ingestion.Version) error
}

// EventPublisher is satisfied by *kafka.Producer.
type EventPublisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

type Publisher struct {
	writer   *segment.Writer
	versions VersionStore
	events   EventPublisher
	maxBytes int
	logger   *slog.Logger

	// serialises publishes so a duplicate check and its write are atomic
	// within this process; the store's primary key covers the rest.
	mu sync.Mutex
}

// New creates a publisher. versions and events may be nil: without a
// store every publish writes a new container, without events searchers
// must be reloaded some other way.
func New(writer *segment.Writer, versions VersionStore, events EventPublisher, maxBytes int) *Publisher {
	return &Publisher{
		writer:   writer,
		versions: versions,
		events:   events,
		maxBytes: maxBytes,
		logger:   slog.Default().With("component", "publisher"),
	}
}

// Publish validates data and publishes it. Validation failures are
// returned as *validator.ValidationError.
func (p *Publisher) Publish(ctx context.Context, data []byte, source string) (*ingestion.PublishResponse, error) {
	v, err := validator.Validate(data, p.maxBytes)
	if err != nil {
		return nil, err
	}
	version := v.Blob.Version
	crates, items := len(v.Index.Crates), len(v.Index.Items)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.versions != nil {
		existing, err := p.versions.Lookup(ctx, version)
		if err != nil {
			return nil, fmt.Errorf("checking version %s: %w", version, err)
		}
		if existing != nil {
			if _, statErr := os.Stat(existing.Path); statErr == nil {
				p.logger.Info("duplicate publish detected", "version", version, "path", existing.Path)
				return &ingestion.PublishResponse{
					Version: version,
					Path:    existing.Path,
					Crates:  existing.Crates,
					Items:   existing.Items,
					Status:  "duplicate",
				}, nil
			}
			p.logger.Warn("published container missing, writing again", "version", version, "path", existing.Path)
		}
	}

	path, err := p.writer.Write(v.Blob.Payload, crates, items)
	if err != nil {
		return nil, fmt.Errorf("writing container: %w", err)
	}
	now := time.Now().UTC()
	record := ingestion.Version{
		Version:     version,
		Source:      source,
		Path:        path,
		Crates:      crates,
		Items:       items,
		SizeBytes:   int64(len(v.Blob.Payload)),
		PublishedAt: now,
	}
	if p.versions != nil {
		if err := p.versions.Record(ctx, record); err != nil {
			return nil, fmt.Errorf("recording version %s: %w", version, err)
		}
	}

	if p.events != nil {
		event := kafka.Event{
			Key:  version,
			Type: ingestion.EventIndexPublished,
			Value: ingestion.IndexPublishedEvent{
				Version:     version,
				Path:        path,
				Source:      source,
				Crates:      crates,
				Items:       items,
				SizeBytes:   record.SizeBytes,
				PublishedAt: now,
			},
		}
		if err := p.events.Publish(ctx, event); err != nil {
			p.logger.Error("failed to announce index, searchers will not reload",
				"version", version,
				"path", path,
				"error", err,
			)
		}
	}

	p.logger.Info("index published",
		"version", version,
		"path", path,
		"source", source,
		"crates", crates,
		"items", items,
	)
	return &ingestion.PublishResponse{
		Version: version,
		Path:    path,
		Crates:  crates,
		Items:   items,
		Status:  "published",
	}, nil
}
