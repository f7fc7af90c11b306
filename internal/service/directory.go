package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/msomdec/squadhub/internal/domain"
)

// DirectoryPageSize bounds the directory fetch. It is a hard cutoff.
const DirectoryPageSize = 40

// GroupDirectory caches one page of groups and filters it in memory by a
// search term and a set of tag filters.
type GroupDirectory struct {
	store domain.DocumentStore

	groups  []domain.Group
	search  string
	filters []string
}

func NewGroupDirectory(store domain.DocumentStore) *GroupDirectory {
	return &GroupDirectory{store: store}
}

// Load replaces the cache with the newest groups. Search and filter state
// is kept. On error the previous cache is left intact.
func (d *GroupDirectory) Load(ctx context.Context) error {
	docs, err := d.store.Query(ctx, domain.GroupsCollection, domain.Query{
		OrderBy:    "createdAt",
		Descending: true,
		Limit:      DirectoryPageSize,
	})
	if err != nil {
		return fmt.Errorf("query groups: %w", err)
	}
	groups, err := decodeGroups(docs)
	if err != nil {
		return err
	}
	d.groups = groups
	return nil
}

func (d *GroupDirectory) Reload(ctx context.Context) error {
	return d.Load(ctx)
}

// SetSearch sets the search term. Matching is case-insensitive.
func (d *GroupDirectory) SetSearch(term string) {
	d.search = strings.ToLower(strings.TrimSpace(term))
}

// ToggleFilter adds or removes a tag filter. Filters compare
// case-insensitively.
func (d *GroupDirectory) ToggleFilter(tag string) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return
	}
	if i := slices.Index(d.filters, tag); i >= 0 {
		d.filters = slices.Delete(d.filters, i, i+1)
		return
	}
	d.filters = append(d.filters, tag)
}

func (d *GroupDirectory) Search() string { return d.search }

// IsFilterActive reports whether tag is among the active filters.
func (d *GroupDirectory) IsFilterActive(tag string) bool {
	return slices.Contains(d.filters, strings.ToLower(tag))
}

// Groups returns the cached page, unfiltered.
func (d *GroupDirectory) Groups() []domain.Group {
	return d.groups
}

// Visible returns the cached groups matching both the search term and the
// tag filters, in cache order.
func (d *GroupDirectory) Visible() []domain.Group {
	out := make([]domain.Group, 0, len(d.groups))
	for _, g := range d.groups {
		if matchesSearch(g, d.search) && matchesFilters(g, d.filters) {
			out = append(out, g)
		}
	}
	return out
}

func matchesSearch(g domain.Group, term string) bool {
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(g.Name), term) || strings.Contains(strings.ToLower(g.Description), term) {
		return true
	}
	for _, tag := range g.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

func matchesFilters(g domain.Group, filters []string) bool {
	if len(filters) == 0 {
		return true
	}
	for _, tag := range g.Tags {
		if slices.Contains(filters, strings.ToLower(tag)) {
			return true
		}
	}
	return false
}
