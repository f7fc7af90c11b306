package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/msomdec/squadhub/internal/domain"
	"golang.org/x/sync/errgroup"
)

// recentGroupsOnProfile is how many joined groups the profile page lists.
const recentGroupsOnProfile = 3

// ProfileStore reads and writes users/{uid} documents.
type ProfileStore struct {
	store domain.DocumentStore
}

func NewProfileStore(store domain.DocumentStore) *ProfileStore {
	return &ProfileStore{store: store}
}

// Create writes the initial profile for a new account.
func (p *ProfileStore) Create(ctx context.Context, identity domain.Identity) error {
	err := p.store.Set(ctx, domain.UsersCollection, identity.UID, map[string]any{
		"name":      identity.DisplayName,
		"email":     identity.Email,
		"photoURL":  "",
		"interests": []string{},
		"createdAt": domain.ServerTimestamp,
	})
	if err != nil {
		return fmt.Errorf("%w: create profile: %v", domain.ErrRemoteWrite, err)
	}
	return nil
}

// Get returns ErrNotFound when uid has no profile.
func (p *ProfileStore) Get(ctx context.Context, uid string) (*domain.UserProfile, error) {
	doc, err := p.store.Get(ctx, domain.UsersCollection, uid)
	if err != nil {
		return nil, err
	}
	var profile domain.UserProfile
	if err := doc.DataTo(&profile); err != nil {
		return nil, err
	}
	profile.ID = doc.ID
	return &profile, nil
}

// SaveInterests stores exactly interests, in order.
func (p *ProfileStore) SaveInterests(ctx context.Context, uid string, interests []string) error {
	if err := validateInterests(interests); err != nil {
		return err
	}
	if err := p.store.Update(ctx, domain.UsersCollection, uid, map[string]any{
		"interests": nonNil(interests),
	}); err != nil {
		return fmt.Errorf("%w: save interests: %v", domain.ErrRemoteWrite, err)
	}
	return nil
}

// UpdateProfile saves the editable profile fields.
func (p *ProfileStore) UpdateProfile(ctx context.Context, uid, name, photoURL string, interests []string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	photoURL = strings.TrimSpace(photoURL)
	if photoURL != "" && !strings.HasPrefix(photoURL, "https://") && !strings.HasPrefix(photoURL, "http://") {
		return fmt.Errorf("%w: photo URL must be http or https", domain.ErrInvalidInput)
	}
	if err := validateInterests(interests); err != nil {
		return err
	}
	if err := p.store.Update(ctx, domain.UsersCollection, uid, map[string]any{
		"name":      name,
		"photoURL":  photoURL,
		"interests": nonNil(interests),
	}); err != nil {
		return fmt.Errorf("%w: update profile: %v", domain.ErrRemoteWrite, err)
	}
	return nil
}

// ProfileStats backs the profile page summary.
type ProfileStats struct {
	JoinedGroups int
	PostsWritten int
	RecentGroups []domain.Group
}

// Stats counts the user's groups and authored posts.
func (p *ProfileStore) Stats(ctx context.Context, uid string) (*ProfileStats, error) {
	var (
		stats  ProfileStats
		groups []domain.Group
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		docs, err := p.store.Query(gctx, domain.GroupsCollection, domain.Query{
			Filters: []domain.Filter{domain.Where("members", domain.OpArrayContains, uid)},
		})
		if err != nil {
			return fmt.Errorf("query joined groups: %w", err)
		}
		groups, err = decodeGroups(docs)
		return err
	})
	g.Go(func() error {
		docs, err := p.store.QueryGroup(gctx, domain.PostsCollection, domain.Query{
			Filters: []domain.Filter{domain.Where("authorId", domain.OpEqual, uid)},
		})
		if err != nil {
			return fmt.Errorf("query authored posts: %w", err)
		}
		stats.PostsWritten = len(docs)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sortNewestFirst(groups)
	stats.JoinedGroups = len(groups)
	stats.RecentGroups = groups[:min(len(groups), recentGroupsOnProfile)]
	return &stats, nil
}

func validateInterests(interests []string) error {
	if len(interests) > domain.MaxInterests {
		return domain.ErrInterestCap
	}
	for i, term := range interests {
		if !domain.IsInterest(term) {
			return fmt.Errorf("%w: unknown interest %q", domain.ErrInvalidInput, term)
		}
		if slices.Contains(interests[:i], term) {
			return fmt.Errorf("%w: duplicate interest %q", domain.ErrInvalidInput, term)
		}
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
