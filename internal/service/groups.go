package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/msomdec/squadhub/internal/domain"
)

// GroupService creates and loads groups.
type GroupService struct {
	store domain.DocumentStore
}

func NewGroupService(store domain.DocumentStore) *GroupService {
	return &GroupService{store: store}
}

// Create adds a group owned by the session user, who becomes its first
// member. tags is a comma-separated list.
func (s *GroupService) Create(ctx context.Context, session *Session, name, description, tags string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: group name is required", domain.ErrInvalidInput)
	}

	id, err := s.store.Add(ctx, domain.GroupsCollection, map[string]any{
		"name":        name,
		"description": strings.TrimSpace(description),
		"tags":        ParseTags(tags),
		"members":     []string{session.UID()},
		"ownerId":     session.UID(),
		"createdAt":   domain.ServerTimestamp,
	})
	if err != nil {
		return "", fmt.Errorf("%w: create group: %v", domain.ErrRemoteWrite, err)
	}
	return id, nil
}

// Get returns ErrNotFound when the group does not exist.
func (s *GroupService) Get(ctx context.Context, id string) (*domain.Group, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: missing group id", domain.ErrInvalidInput)
	}
	doc, err := s.store.Get(ctx, domain.GroupsCollection, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get group: %w", err)
	}
	g, err := decodeGroup(*doc)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// ParseTags splits a comma-separated list, trimming entries and dropping
// empty ones.
func ParseTags(csv string) []string {
	tags := []string{}
	for _, t := range strings.Split(csv, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func decodeGroup(doc domain.Document) (domain.Group, error) {
	var g domain.Group
	if err := doc.DataTo(&g); err != nil {
		return g, err
	}
	g.ID = doc.ID
	return g, nil
}

func decodeGroups(docs []domain.Document) ([]domain.Group, error) {
	groups := make([]domain.Group, 0, len(docs))
	for _, d := range docs {
		g, err := decodeGroup(d)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// decodePost derives the group id from the post's parent path.
func decodePost(doc domain.Document) (domain.Post, error) {
	var p domain.Post
	if err := doc.DataTo(&p); err != nil {
		return p, err
	}
	p.ID = doc.ID
	p.GroupID = doc.ParentID()
	return p, nil
}

func decodePosts(docs []domain.Document) ([]domain.Post, error) {
	posts := make([]domain.Post, 0, len(docs))
	for _, d := range docs {
		p, err := decodePost(d)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func decodeComments(docs []domain.Document) ([]domain.Comment, error) {
	comments := make([]domain.Comment, 0, len(docs))
	for _, d := range docs {
		var c domain.Comment
		if err := d.DataTo(&c); err != nil {
			return nil, err
		}
		c.ID = d.ID
		c.PostID = d.ParentID()
		comments = append(comments, c)
	}
	return comments, nil
}

// sortNewestFirst orders groups by createdAt descending; ties keep their
// current order.
func sortNewestFirst(groups []domain.Group) {
	slices.SortStableFunc(groups, func(a, b domain.Group) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
