package service_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/msomdec/squadhub/internal/domain"
	"github.com/msomdec/squadhub/internal/service"
)

func TestMyGroupsView_Filters(t *testing.T) {
	env := newTestEnv(t)
	env.seedGroup(t, groupSeed{id: "mine-old", name: "a", members: []string{"me"}, createdAt: ts(1)})
	env.seedGroup(t, groupSeed{id: "joined", name: "b", members: []string{"x", "me"}, createdAt: ts(2)})
	env.seedGroup(t, groupSeed{id: "mine-new", name: "c", members: []string{"me"}, createdAt: ts(3)})
	env.seedGroup(t, groupSeed{id: "other", name: "d", members: []string{"x"}, createdAt: ts(4)})

	v := service.NewMyGroupsView(env.store, "me")
	if err := v.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v.Total() != 3 {
		t.Fatalf("expected 3 groups, got %d", v.Total())
	}

	tests := []struct {
		filter service.MyGroupsFilter
		want   []string
	}{
		{service.MyGroupsAll, []string{"mine-new", "joined", "mine-old"}},
		{service.MyGroupsOwner, []string{"mine-new", "mine-old"}},
		{service.MyGroupsMember, []string{"joined"}},
	}
	for _, tc := range tests {
		v.SetFilter(tc.filter)
		if got := groupIDs(v.Visible()); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.filter, tc.want, got)
		}
	}
}

func TestParseMyGroupsFilter(t *testing.T) {
	if f, err := service.ParseMyGroupsFilter("owner"); err != nil || f != service.MyGroupsOwner {
		t.Fatalf("expected owner, got %q %v", f, err)
	}
	if _, err := service.ParseMyGroupsFilter("admin"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGroupService_Create(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	groups := service.NewGroupService(env.store)

	id, err := groups.Create(ctx, env.session("me"), " Robotics Club ", "We build", " Robotics, ,Hardware ,")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	g, err := groups.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if g.Name != "Robotics Club" || g.OwnerID != "me" {
		t.Fatalf("unexpected group %+v", g)
	}
	if !reflect.DeepEqual(g.Tags, []string{"Robotics", "Hardware"}) {
		t.Fatalf("unexpected tags %v", g.Tags)
	}
	if !reflect.DeepEqual(g.Members, []string{"me"}) {
		t.Fatalf("expected owner to be the only member, got %v", g.Members)
	}
	if g.CreatedAt.IsZero() {
		t.Fatal("expected createdAt to be set")
	}

	if _, err := groups.Create(ctx, env.session("me"), "", "", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := groups.Get(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
