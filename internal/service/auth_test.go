package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/msomdec/squadhub/internal/domain"
	"github.com/msomdec/squadhub/internal/service"
)

func signUp(t *testing.T, env *testEnv, email string) *service.SignedIn {
	t.Helper()
	signedIn, err := env.auth.SignUp(context.Background(), email, "Test User", "abc123")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	return signedIn
}

func TestAuthService_SignUpAndSignIn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created := signUp(t, env, "  New@Example.com ")
	if created.Identity.Email != "new@example.com" {
		t.Fatalf("expected normalized email, got %q", created.Identity.Email)
	}

	signedIn, err := env.auth.SignIn(ctx, "new@example.com", "abc123")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if signedIn.Identity.UID != created.Identity.UID {
		t.Fatalf("expected uid %s, got %s", created.Identity.UID, signedIn.Identity.UID)
	}
	if signedIn.Identity.SessionID == created.Identity.SessionID {
		t.Fatal("expected a new session per sign in")
	}

	identity, err := env.auth.CurrentUser(ctx, signedIn.Token)
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if identity.UID != created.Identity.UID || identity.DisplayName != "Test User" {
		t.Fatalf("unexpected identity %+v", identity)
	}
}

func TestAuthService_SignUpErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	signUp(t, env, "dup@example.com")

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"duplicate email", "dup@example.com", "abc123", domain.ErrEmailInUse},
		{"weak password", "weak@example.com", "abc12", domain.ErrWeakPassword},
		{"invalid email", "not-an-email", "abc123", domain.ErrInvalidInput},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.auth.SignUp(ctx, tc.email, "X", tc.password)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestAuthService_SignInInvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	signUp(t, env, "user@example.com")

	if _, err := env.auth.SignIn(ctx, "user@example.com", "wrong1"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := env.auth.SignIn(ctx, "nobody@example.com", "abc123"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_CurrentUserRejectsBadTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	signedIn := signUp(t, env, "tamper@example.com")

	tampered := signedIn.Token[:len(signedIn.Token)-5] + "XXXXX"
	for _, token := range []string{"", "not-a-jwt", tampered} {
		if _, err := env.auth.CurrentUser(ctx, token); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized for %q, got %v", token, err)
		}
	}

	other := service.NewAuthService(env.db.Accounts(), env.db.AuthSessions(), env.db.PasswordResets(), nil, "another-secret-another-secret-0000", 4, "")
	if _, err := other.CurrentUser(ctx, signedIn.Token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for wrong secret, got %v", err)
	}
}

func TestAuthService_SignOutRevokesAndNotifies(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	signedIn := signUp(t, env, "out@example.com")

	var (
		mu     sync.Mutex
		states []*domain.Identity
	)
	unsubscribe := env.auth.SubscribeAuthState(ctx, signedIn.Token, func(id *domain.Identity) {
		mu.Lock()
		states = append(states, id)
		mu.Unlock()
	})
	defer unsubscribe()

	if err := env.auth.SignOut(ctx, signedIn.Token); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if _, err := env.auth.CurrentUser(ctx, signedIn.Token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected revoked token to be rejected, got %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(states) != 2 || states[0] == nil || states[1] != nil {
		t.Fatalf("expected [identity, nil], got %v", states)
	}
}

func TestAuthService_SubscribeSignedOut(t *testing.T) {
	env := newTestEnv(t)

	var got []*domain.Identity
	unsubscribe := env.auth.SubscribeAuthState(context.Background(), "garbage", func(id *domain.Identity) {
		got = append(got, id)
	})
	unsubscribe()

	if len(got) != 1 || got[0] != nil {
		t.Fatalf("expected a single nil state, got %v", got)
	}
	if n := env.auth.ListenerCount(); n != 0 {
		t.Fatalf("expected 0 listeners, got %d", n)
	}
}

func TestAuthService_ConcurrentSubscriptionsAreReleased(t *testing.T) {
	env := newTestEnv(t)
	signedIn := signUp(t, env, "many@example.com")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var once sync.Once
			resolved := make(chan struct{})
			unsubscribe := env.auth.SubscribeAuthState(context.Background(), signedIn.Token, func(*domain.Identity) {
				once.Do(func() { close(resolved) })
			})
			<-resolved
			unsubscribe()
			unsubscribe()
		}()
	}
	wg.Wait()

	if n := env.auth.ListenerCount(); n != 0 {
		t.Fatalf("expected 0 listeners, got %d", n)
	}
}

func TestAuthService_PasswordReset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	signedIn := signUp(t, env, "reset@example.com")

	if err := env.auth.SendPasswordReset(ctx, "missing@example.com"); !errors.Is(err, domain.ErrUnknownEmail) {
		t.Fatalf("expected ErrUnknownEmail, got %v", err)
	}
	if err := env.auth.SendPasswordReset(ctx, "reset@example.com"); err != nil {
		t.Fatalf("SendPasswordReset: %v", err)
	}
	token := env.mailer.Token()
	if token == "" {
		t.Fatal("expected a reset link to be mailed")
	}

	if err := env.auth.ConfirmPasswordReset(ctx, token, "abc"); !errors.Is(err, domain.ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if err := env.auth.ConfirmPasswordReset(ctx, token, "newpass1"); err != nil {
		t.Fatalf("ConfirmPasswordReset: %v", err)
	}
	if err := env.auth.ConfirmPasswordReset(ctx, token, "newpass2"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected reused token to be rejected, got %v", err)
	}

	if _, err := env.auth.CurrentUser(ctx, signedIn.Token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected old session to be revoked, got %v", err)
	}
	if _, err := env.auth.SignIn(ctx, "reset@example.com", "abc123"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected old password to fail, got %v", err)
	}
	if _, err := env.auth.SignIn(ctx, "reset@example.com", "newpass1"); err != nil {
		t.Fatalf("SignIn with new password: %v", err)
	}
}
