package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/squadhub/internal/domain"
)

// authSessionRepo implements domain.AuthSessionRepository using SQLite.
type authSessionRepo struct {
	db *sql.DB
}

func (r *authSessionRepo) Create(ctx context.Context, s *domain.AuthSession) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO auth_sessions (id, uid, expires_at, revoked, created_at) VALUES (?, ?, ?, 0, ?)`,
		s.ID, s.UID, s.ExpiresAt.UTC(), now,
	)
	if err != nil {
		return fmt.Errorf("insert auth session: %w", err)
	}
	s.CreatedAt = now
	return nil
}

func (r *authSessionRepo) GetByID(ctx context.Context, id string) (*domain.AuthSession, error) {
	s := &domain.AuthSession{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, uid, expires_at, revoked, created_at FROM auth_sessions WHERE id = ?`, id,
	).Scan(&s.ID, &s.UID, &s.ExpiresAt, &s.Revoked, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query auth session: %w", err)
	}
	return s, nil
}

func (r *authSessionRepo) Revoke(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE auth_sessions SET revoked = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("revoke auth session: %w", err)
	}
	return nil
}

func (r *authSessionRepo) RevokeAllByUser(ctx context.Context, uid string) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT id FROM auth_sessions WHERE uid = ? AND revoked = 0`, uid)
	if err != nil {
		return nil, fmt.Errorf("list auth sessions: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan auth session: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE auth_sessions SET revoked = 1 WHERE uid = ?`, uid); err != nil {
		return nil, fmt.Errorf("revoke auth sessions: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return ids, nil
}
