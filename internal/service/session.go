package service

import (
	"context"
	"errors"
	"strings"

	"github.com/msomdec/squadhub/internal/domain"
)

// Session is the per-request context built once auth has resolved. It is
// passed explicitly to every component that needs the current user.
type Session struct {
	Identity domain.Identity
	// Profile is nil when the user has no profile document.
	Profile *domain.UserProfile
}

// NewSession loads the profile for identity. A missing profile is not an
// error.
func NewSession(ctx context.Context, profiles *ProfileStore, identity domain.Identity) (*Session, error) {
	profile, err := profiles.Get(ctx, identity.UID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return &Session{Identity: identity, Profile: profile}, nil
}

// UID returns the signed-in user's id.
func (s *Session) UID() string {
	return s.Identity.UID
}

// AuthorName is the name snapshotted onto posts and comments.
func (s *Session) AuthorName() string {
	if s.Profile != nil && strings.TrimSpace(s.Profile.Name) != "" {
		return s.Profile.Name
	}
	if s.Identity.DisplayName != "" {
		return s.Identity.DisplayName
	}
	return "Anonymous"
}

// Interests returns the profile's interests, or nil without a profile.
func (s *Session) Interests() []string {
	if s.Profile == nil {
		return nil
	}
	return s.Profile.Interests
}
