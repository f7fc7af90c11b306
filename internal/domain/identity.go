package domain

import (
	"context"
	"time"
)

// Identity is the authenticated-user handle issued by the auth provider.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
	SessionID   string
}

// Account is the auth provider's credential record.
type Account struct {
	UID          string
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AccountRepository persists auth-provider accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, uid string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	UpdatePassword(ctx context.Context, uid, passwordHash string) error
}

// AuthSession is a signed-in session. Tokens carry its ID so that
// sign-out can revoke them before they expire.
type AuthSession struct {
	ID        string
	UID       string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}

// AuthSessionRepository persists sign-in sessions.
type AuthSessionRepository interface {
	Create(ctx context.Context, session *AuthSession) error
	GetByID(ctx context.Context, id string) (*AuthSession, error)
	Revoke(ctx context.Context, id string) error
	// RevokeAllByUser revokes every session of uid and returns their IDs.
	RevokeAllByUser(ctx context.Context, uid string) ([]string, error)
}

// PasswordReset is a one-time reset grant; only the token hash is stored.
type PasswordReset struct {
	TokenHash string
	UID       string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// PasswordResetRepository persists reset grants.
type PasswordResetRepository interface {
	Create(ctx context.Context, reset *PasswordReset) error
	// Consume marks an unused, unexpired grant as used and returns its uid.
	// Returns ErrNotFound when no such grant exists.
	Consume(ctx context.Context, tokenHash string, now time.Time) (string, error)
}
