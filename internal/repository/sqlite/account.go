package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/msomdec/squadhub/internal/domain"
)

// accountRepo implements domain.AccountRepository using SQLite.
type accountRepo struct {
	db *sql.DB
}

func (r *accountRepo) Create(ctx context.Context, account *domain.Account) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (uid, email, display_name, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		account.UID, account.Email, account.DisplayName, account.PasswordHash, now, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrEmailInUse
		}
		return fmt.Errorf("insert account: %w", err)
	}

	account.CreatedAt = now
	account.UpdatedAt = now
	return nil
}

func (r *accountRepo) GetByID(ctx context.Context, uid string) (*domain.Account, error) {
	return r.getOne(ctx, "uid", uid)
}

func (r *accountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.getOne(ctx, "email", email)
}

func (r *accountRepo) getOne(ctx context.Context, column, value string) (*domain.Account, error) {
	a := &domain.Account{}
	err := r.db.QueryRowContext(ctx,
		`SELECT uid, email, display_name, password_hash, created_at, updated_at
		 FROM accounts WHERE `+column+` = ?`, value,
	).Scan(&a.UID, &a.Email, &a.DisplayName, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query account by %s: %w", column, err)
	}
	return a, nil
}

func (r *accountRepo) UpdatePassword(ctx context.Context, uid, passwordHash string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = ?, updated_at = ? WHERE uid = ?`,
		passwordHash, time.Now().UTC(), uid,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// isUniqueConstraintError checks if the error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
