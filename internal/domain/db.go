package domain

import "context"

// Database defines lifecycle operations for the underlying database.
// Each implementation (SQLite, Postgres, Mongo) owns its own schema
// strategy, so the document backend stays swappable.
type Database interface {
	Migrate(ctx context.Context) error
	Close() error
}
