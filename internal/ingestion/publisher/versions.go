package publisher

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/postgres"
)

// PostgresVersions stores versions in the index_versions table.
type PostgresVersions struct {
	db *postgres.Client
}

func NewPostgresVersions(db *postgres.Client) *PostgresVersions {
	return &PostgresVersions{db: db}
}

func (s *PostgresVersions) Lookup(ctx context.Context, version string) (*ingestion.Version, error) {
	var v ingestion.Version
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT version, source, path, crates, items, size_bytes, published_at
		 FROM index_versions WHERE version = $1`, version,
	).Scan(&v.Version, &v.Source, &v.Path, &v.Crates, &v.Items, &v.SizeBytes, &v.PublishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying version: %w", err)
	}
	return &v, nil
}

// Record inserts v, or repoints an existing row at a rewritten container.
func (s *PostgresVersions) Record(ctx context.Context, v ingestion.Version) error {
	_, err := s.db.DB.ExecContext(ctx,
		`INSERT INTO index_versions (version, source, path, crates, items, size_bytes, published_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (version) DO UPDATE SET path = EXCLUDED.path`,
		v.Version, v.Source, v.Path, v.Crates, v.Items, v.SizeBytes, v.PublishedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting version: %w", err)
	}
	return nil
}

// List returns the newest versions first.
func (s *PostgresVersions) List(ctx context.Context, limit int) ([]ingestion.Version, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT version, source, path, crates, items, size_bytes, published_at
		 FROM index_versions ORDER BY published_at DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}
	defer rows.Close()
	var out []ingestion.Version
	for rows.Next() {
		var v ingestion.Version
		if err := rows.Scan(&v.Version, &v.Source, &v.Path, &v.Crates, &v.Items, &v.SizeBytes, &v.PublishedAt); err != nil {
			return nil, fmt.Errorf("scanning version row: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
