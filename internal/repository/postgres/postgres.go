// Package postgres implements the document store on PostgreSQL jsonb.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB owns the connection pool.
type DB struct {
	Pool *pgxpool.Pool
}

// New connects to PostgreSQL and verifies the connection.
func New(ctx context.Context, connStr string) (*DB, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &DB{Pool: pool}, nil
}

// Migrate creates the documents table when missing.
func (d *DB) Migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			seq             BIGSERIAL PRIMARY KEY,
			collection_path TEXT NOT NULL,
			collection_id   TEXT NOT NULL,
			doc_id          TEXT NOT NULL,
			data            JSONB NOT NULL,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (collection_path, doc_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_collection_id ON documents (collection_id)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_data ON documents USING GIN (data jsonb_path_ops)`,
	}
	for _, q := range queries {
		if _, err := d.Pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Close releases the pool.
func (d *DB) Close() error {
	d.Pool.Close()
	return nil
}

// Documents returns the jsonb document store.
func (d *DB) Documents() *DocumentStore {
	return NewDocumentStore(d.Pool)
}
