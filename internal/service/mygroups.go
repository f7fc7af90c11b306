package service

import (
	"context"
	"fmt"

	"github.com/msomdec/squadhub/internal/domain"
)

// MyGroupsFilter narrows the my-groups list.
type MyGroupsFilter string

const (
	MyGroupsAll    MyGroupsFilter = "all"
	MyGroupsOwner  MyGroupsFilter = "owner"
	MyGroupsMember MyGroupsFilter = "member"
)

// ParseMyGroupsFilter validates a filter name.
func ParseMyGroupsFilter(s string) (MyGroupsFilter, error) {
	switch f := MyGroupsFilter(s); f {
	case MyGroupsAll, MyGroupsOwner, MyGroupsMember:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown filter %q", domain.ErrInvalidInput, s)
	}
}

// MyGroupsView lists every group the user belongs to, newest first.
type MyGroupsView struct {
	store  domain.DocumentStore
	uid    string
	groups []domain.Group
	filter MyGroupsFilter
}

func NewMyGroupsView(store domain.DocumentStore, uid string) *MyGroupsView {
	return &MyGroupsView{store: store, uid: uid, filter: MyGroupsAll}
}

func (v *MyGroupsView) Load(ctx context.Context) error {
	docs, err := v.store.Query(ctx, domain.GroupsCollection, domain.Query{
		Filters: []domain.Filter{domain.Where("members", domain.OpArrayContains, v.uid)},
	})
	if err != nil {
		return fmt.Errorf("query my groups: %w", err)
	}
	groups, err := decodeGroups(docs)
	if err != nil {
		return err
	}
	sortNewestFirst(groups)
	v.groups = groups
	return nil
}

func (v *MyGroupsView) Reload(ctx context.Context) error {
	return v.Load(ctx)
}

func (v *MyGroupsView) SetFilter(f MyGroupsFilter) {
	v.filter = f
}

func (v *MyGroupsView) Filter() MyGroupsFilter { return v.filter }

// Total counts every group the user belongs to, ignoring the filter.
func (v *MyGroupsView) Total() int { return len(v.groups) }

// IsOwner reports whether the viewing user owns g.
func (v *MyGroupsView) IsOwner(g domain.Group) bool { return g.OwnerID == v.uid }

// Visible applies the current filter.
func (v *MyGroupsView) Visible() []domain.Group {
	out := make([]domain.Group, 0, len(v.groups))
	for _, g := range v.groups {
		switch {
		case v.filter == MyGroupsOwner && !v.IsOwner(g):
		case v.filter == MyGroupsMember && v.IsOwner(g):
		default:
			out = append(out, g)
		}
	}
	return out
}
