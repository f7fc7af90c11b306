package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/msomdec/squadhub/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength is the shortest password the provider accepts.
	MinPasswordLength = 6

	sessionTTL    = 24 * time.Hour
	resetTokenTTL = time.Hour
)

// SignedIn is the result of a successful sign-in or sign-up.
type SignedIn struct {
	Identity domain.Identity
	Token    string
}

// AuthService is the auth provider: accounts, sessions, password resets and
// auth-state subscriptions. Tokens are HS256 JWTs naming both the user (sub)
// and the session (sid) so that sign-out can revoke them early.
type AuthService struct {
	accounts   domain.AccountRepository
	sessions   domain.AuthSessionRepository
	resets     domain.PasswordResetRepository
	mailer     Mailer
	jwtSecret  []byte
	bcryptCost int
	baseURL    string
	hub        *authHub
	now        func() time.Time
}

// NewAuthService creates a new AuthService. baseURL prefixes password
// reset links.
func NewAuthService(
	accounts domain.AccountRepository,
	sessions domain.AuthSessionRepository,
	resets domain.PasswordResetRepository,
	mailer Mailer,
	jwtSecret string,
	bcryptCost int,
	baseURL string,
) *AuthService {
	if mailer == nil {
		mailer = LogMailer{}
	}
	return &AuthService{
		accounts:   accounts,
		sessions:   sessions,
		resets:     resets,
		mailer:     mailer,
		jwtSecret:  []byte(jwtSecret),
		bcryptCost: bcryptCost,
		baseURL:    strings.TrimRight(baseURL, "/"),
		hub:        newAuthHub(),
		now:        time.Now,
	}
}

// SignUp creates an account and signs it in.
func (s *AuthService) SignUp(ctx context.Context, email, displayName, password string) (*SignedIn, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrWeakPassword, MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &domain.Account{
		UID:          uuid.NewString(),
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: string(hash),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, domain.ErrEmailInUse) {
			return nil, err
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	return s.startSession(ctx, account)
}

// SignIn verifies credentials and opens a new session.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*SignedIn, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return s.startSession(ctx, account)
}

// CurrentUser resolves a token to its identity. Expired, malformed and
// revoked tokens all yield ErrUnauthorized.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*domain.Identity, error) {
	identity, err := s.parseToken(token)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.GetByID(ctx, identity.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.Revoked || session.UID != identity.UID || !s.now().Before(session.ExpiresAt) {
		return nil, domain.ErrUnauthorized
	}
	return identity, nil
}

// SignOut revokes the token's session and tells its subscribers.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	identity, err := s.parseToken(token)
	if err != nil {
		return err
	}
	if err := s.sessions.Revoke(ctx, identity.SessionID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	s.hub.publish(identity.SessionID, nil)
	return nil
}

// SubscribeAuthState calls fn with the token's current identity (nil when
// signed out) and again whenever that session is signed out. The returned
// func releases the subscription and is safe to call more than once.
func (s *AuthService) SubscribeAuthState(ctx context.Context, token string, fn AuthStateFunc) func() {
	claims, err := s.parseToken(token)
	if err != nil {
		fn(nil)
		return func() {}
	}

	// Register before resolving so a concurrent sign-out is never missed.
	unsubscribe := s.hub.subscribe(claims.SessionID, fn)

	identity, err := s.CurrentUser(ctx, token)
	if err != nil {
		if !errors.Is(err, domain.ErrUnauthorized) {
			slog.Error("failed to resolve auth state", "error", err)
		}
		fn(nil)
		return unsubscribe
	}
	fn(identity)
	return unsubscribe
}

// ListenerCount reports how many auth-state subscriptions are live.
func (s *AuthService) ListenerCount() int {
	return s.hub.count()
}

// SendPasswordReset issues a one-time reset link for email.
func (s *AuthService) SendPasswordReset(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrUnknownEmail
		}
		return fmt.Errorf("get account: %w", err)
	}

	token, err := generateResetToken()
	if err != nil {
		return err
	}
	reset := &domain.PasswordReset{
		TokenHash: hashToken(token),
		UID:       account.UID,
		ExpiresAt: s.now().Add(resetTokenTTL).UTC(),
	}
	if err := s.resets.Create(ctx, reset); err != nil {
		return fmt.Errorf("create password reset: %w", err)
	}

	link := s.baseURL + "/password/reset/confirm?token=" + url.QueryEscape(token)
	if err := s.mailer.SendPasswordReset(ctx, account.Email, link); err != nil {
		return fmt.Errorf("send password reset: %w", err)
	}
	return nil
}

// ConfirmPasswordReset sets a new password for the token's account and
// signs out every existing session of that account.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrWeakPassword, MinPasswordLength)
	}

	uid, err := s.resets.Consume(ctx, hashToken(token), s.now().UTC())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: reset link is invalid or has expired", domain.ErrInvalidInput)
		}
		return fmt.Errorf("consume password reset: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.accounts.UpdatePassword(ctx, uid, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	revoked, err := s.sessions.RevokeAllByUser(ctx, uid)
	if err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	for _, sid := range revoked {
		s.hub.publish(sid, nil)
	}
	return nil
}

func (s *AuthService) startSession(ctx context.Context, account *domain.Account) (*SignedIn, error) {
	now := s.now()
	session := &domain.AuthSession{
		ID:        uuid.NewString(),
		UID:       account.UID,
		ExpiresAt: now.Add(sessionTTL).UTC(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	identity := domain.Identity{
		UID:         account.UID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		SessionID:   session.ID,
	}
	token, err := s.generateJWT(identity, now)
	if err != nil {
		return nil, fmt.Errorf("generate jwt: %w", err)
	}
	return &SignedIn{Identity: identity, Token: token}, nil
}

func (s *AuthService) generateJWT(identity domain.Identity, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":   identity.UID,
		"sid":   identity.SessionID,
		"email": identity.Email,
		"name":  identity.DisplayName,
		"iat":   now.Unix(),
		"exp":   now.Add(sessionTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// parseToken validates the signature and expiry only; revocation is
// checked by CurrentUser.
func (s *AuthService) parseToken(tokenString string) (*domain.Identity, error) {
	if tokenString == "" {
		return nil, domain.ErrUnauthorized
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, domain.ErrUnauthorized
	}
	sid, _ := claims["sid"].(string)
	if sid == "" {
		return nil, domain.ErrUnauthorized
	}
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)

	return &domain.Identity{UID: sub, Email: email, DisplayName: name, SessionID: sid}, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%w: invalid email address", domain.ErrInvalidInput)
	}
	return email, nil
}

func generateResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
