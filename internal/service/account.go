package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/msomdec/squadhub/internal/domain"
)

// AccountService combines the auth provider with the profile store for the
// sign-up and sign-in flows.
type AccountService struct {
	auth     *AuthService
	profiles *ProfileStore
}

func NewAccountService(auth *AuthService, profiles *ProfileStore) *AccountService {
	return &AccountService{auth: auth, profiles: profiles}
}

// SignUp creates the account and its empty profile. The password
// confirmation is checked before anything is sent to the provider.
func (s *AccountService) SignUp(ctx context.Context, name, email, password, confirm string) (*SignedIn, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", domain.ErrInvalidInput)
	}
	if password != confirm {
		return nil, domain.ErrPasswordMismatch
	}

	signedIn, err := s.auth.SignUp(ctx, email, name, password)
	if err != nil {
		return nil, err
	}
	if err := s.profiles.Create(ctx, signedIn.Identity); err != nil {
		return nil, err
	}
	return signedIn, nil
}

// SignIn signs the user in and returns where to send them next:
// onboarding until they have picked interests, the dashboard after.
func (s *AccountService) SignIn(ctx context.Context, email, password string) (*SignedIn, string, error) {
	signedIn, err := s.auth.SignIn(ctx, email, password)
	if err != nil {
		return nil, "", err
	}

	profile, err := s.profiles.Get(ctx, signedIn.Identity.UID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return signedIn, "/onboarding", nil
	case err != nil:
		slog.Error("failed to load profile after sign in", "uid", signedIn.Identity.UID, "error", err)
		return signedIn, "/dashboard", nil
	case len(profile.Interests) == 0:
		return signedIn, "/onboarding", nil
	}
	return signedIn, "/dashboard", nil
}
