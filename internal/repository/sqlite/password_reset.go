package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/squadhub/internal/domain"
)

// passwordResetRepo implements domain.PasswordResetRepository using SQLite.
type passwordResetRepo struct {
	db *sql.DB
}

func (r *passwordResetRepo) Create(ctx context.Context, reset *domain.PasswordReset) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO password_resets (token_hash, uid, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		reset.TokenHash, reset.UID, reset.ExpiresAt.UTC(), now,
	)
	if err != nil {
		return fmt.Errorf("insert password reset: %w", err)
	}
	reset.CreatedAt = now
	return nil
}

func (r *passwordResetRepo) Consume(ctx context.Context, tokenHash string, now time.Time) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var (
		uid       string
		expiresAt time.Time
		usedAt    sql.NullTime
	)
	err = tx.QueryRowContext(ctx,
		`SELECT uid, expires_at, used_at FROM password_resets WHERE token_hash = ?`, tokenHash,
	).Scan(&uid, &expiresAt, &usedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("query password reset: %w", err)
	}
	if usedAt.Valid || !now.Before(expiresAt) {
		return "", domain.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE password_resets SET used_at = ? WHERE token_hash = ?`, now.UTC(), tokenHash,
	); err != nil {
		return "", fmt.Errorf("mark password reset used: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return uid, nil
}
