package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/msomdec/squadhub/internal/domain"
	"github.com/msomdec/squadhub/internal/repository/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// DB wraps the SQLite handle and hands out the repositories built on it.
type DB struct {
	SqlDB *sql.DB
}

// New opens a SQLite database at the given path and configures it for use.
// It enables WAL mode and foreign keys.
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	// A single connection serializes writers, which is what makes the
	// read-modify-write in DocumentStore.Update atomic.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{SqlDB: db}, nil
}

// Migrate applies the embedded schema migrations.
func (d *DB) Migrate(ctx context.Context) error {
	return migrations.Run(ctx, d.SqlDB)
}

// Close closes the underlying database.
func (d *DB) Close() error {
	return d.SqlDB.Close()
}

func (d *DB) Accounts() domain.AccountRepository {
	return &accountRepo{db: d.SqlDB}
}

func (d *DB) AuthSessions() domain.AuthSessionRepository {
	return &authSessionRepo{db: d.SqlDB}
}

func (d *DB) PasswordResets() domain.PasswordResetRepository {
	return &passwordResetRepo{db: d.SqlDB}
}

// Documents returns the JSON document store.
func (d *DB) Documents() *DocumentStore {
	return NewDocumentStore(d.SqlDB)
}
