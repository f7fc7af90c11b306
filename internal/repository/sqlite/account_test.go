package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/msomdec/squadhub/internal/domain"
)

func createAccount(t *testing.T, repo domain.AccountRepository, uid, email string) *domain.Account {
	t.Helper()
	a := &domain.Account{UID: uid, Email: email, DisplayName: "Test User", PasswordHash: "hash"}
	if err := repo.Create(context.Background(), a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return a
}

func TestAccountRepository_Create(t *testing.T) {
	db := newTestDB(t)
	a := createAccount(t, db.Accounts(), "u1", "test@example.com")
	if a.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be set")
	}
}

func TestAccountRepository_Create_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	repo := db.Accounts()
	createAccount(t, repo, "u1", "dup@example.com")

	err := repo.Create(context.Background(), &domain.Account{UID: "u2", Email: "dup@example.com", PasswordHash: "h"})
	if !errors.Is(err, domain.ErrEmailInUse) {
		t.Fatalf("expected ErrEmailInUse, got %v", err)
	}
	if !errors.Is(err, domain.ErrAuth) {
		t.Fatalf("expected ErrEmailInUse to wrap ErrAuth, got %v", err)
	}
}

func TestAccountRepository_GetByEmailAndID(t *testing.T) {
	db := newTestDB(t)
	repo := db.Accounts()
	ctx := context.Background()
	createAccount(t, repo, "u1", "find@example.com")

	byEmail, err := repo.GetByEmail(ctx, "find@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if byEmail.UID != "u1" {
		t.Fatalf("expected uid u1, got %q", byEmail.UID)
	}

	byID, err := repo.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if byID.Email != "find@example.com" {
		t.Fatalf("expected email find@example.com, got %q", byID.Email)
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAccountRepository_UpdatePassword(t *testing.T) {
	db := newTestDB(t)
	repo := db.Accounts()
	ctx := context.Background()
	createAccount(t, repo, "u1", "pw@example.com")

	if err := repo.UpdatePassword(ctx, "u1", "newhash"); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}
	a, err := repo.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if a.PasswordHash != "newhash" {
		t.Fatalf("expected newhash, got %q", a.PasswordHash)
	}

	if err := repo.UpdatePassword(ctx, "missing", "x"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAuthSessionRepository_RevokeAllByUser(t *testing.T) {
	db := newTestDB(t)
	createAccount(t, db.Accounts(), "u1", "s@example.com")
	repo := db.AuthSessions()
	ctx := context.Background()
	exp := time.Now().Add(time.Hour).UTC()

	for _, id := range []string{"s1", "s2"} {
		if err := repo.Create(ctx, &domain.AuthSession{ID: id, UID: "u1", ExpiresAt: exp}); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}

	revoked, err := repo.RevokeAllByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("RevokeAllByUser: %v", err)
	}
	if len(revoked) != 2 {
		t.Fatalf("expected 2 revoked sessions, got %v", revoked)
	}

	s, err := repo.GetByID(ctx, "s1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !s.Revoked {
		t.Fatal("expected s1 to be revoked")
	}
}

func TestPasswordResetRepository_Consume(t *testing.T) {
	db := newTestDB(t)
	createAccount(t, db.Accounts(), "u1", "r@example.com")
	repo := db.PasswordResets()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := repo.Create(ctx, &domain.PasswordReset{TokenHash: "h1", UID: "u1", ExpiresAt: now.Add(time.Hour)}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, &domain.PasswordReset{TokenHash: "h2", UID: "u1", ExpiresAt: now.Add(-time.Minute)}); err != nil {
		t.Fatalf("Create expired: %v", err)
	}

	uid, err := repo.Consume(ctx, "h1", now)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if uid != "u1" {
		t.Fatalf("expected u1, got %q", uid)
	}

	// Grants are single use.
	if _, err := repo.Consume(ctx, "h1", now); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on reuse, got %v", err)
	}
	if _, err := repo.Consume(ctx, "h2", now); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for expired grant, got %v", err)
	}
}
