package service_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/msomdec/squadhub/internal/domain"
	"github.com/msomdec/squadhub/internal/service"
)

type countingReloader struct{ n int }

func (r *countingReloader) Reload(context.Context) error {
	r.n++
	return nil
}

func members(t *testing.T, env *testEnv, gid string) []string {
	t.Helper()
	g, err := service.NewGroupService(env.store).Get(context.Background(), gid)
	if err != nil {
		t.Fatalf("Get group: %v", err)
	}
	return g.Members
}

func TestMembershipController_JoinIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.seedGroup(t, groupSeed{id: "g1", name: "G", members: []string{"owner"}})
	m := service.NewMembershipController(env.store)
	reloader := &countingReloader{}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		notice := m.Join(ctx, env.session("u1"), "g1", reloader)
		if notice.Variant != domain.NoticeSuccess || notice.Message != "Joined group!" {
			t.Fatalf("unexpected notice %+v", notice)
		}
	}
	if got := members(t, env, "g1"); !reflect.DeepEqual(got, []string{"owner", "u1"}) {
		t.Fatalf("expected [owner u1], got %v", got)
	}
	if reloader.n != 2 {
		t.Fatalf("expected the active view to reload after each join, got %d", reloader.n)
	}
}

func TestMembershipController_Leave(t *testing.T) {
	env := newTestEnv(t)
	env.seedGroup(t, groupSeed{id: "g1", name: "G", members: []string{"owner", "u1"}})
	m := service.NewMembershipController(env.store)

	notice := m.Leave(context.Background(), env.session("u1"), "g1", nil)
	if notice.Variant != domain.NoticeInfo || notice.Message != "Left the group" {
		t.Fatalf("unexpected notice %+v", notice)
	}
	if got := members(t, env, "g1"); !reflect.DeepEqual(got, []string{"owner"}) {
		t.Fatalf("expected [owner], got %v", got)
	}
}

func TestMembershipController_FailedJoinChangesNothing(t *testing.T) {
	env := newTestEnv(t)
	env.seedGroup(t, groupSeed{id: "g1", name: "G", members: []string{"owner"}})
	m := service.NewMembershipController(env.store)
	reloader := &countingReloader{}

	env.store.FailOn(func(op, _ string) error {
		if op == "update" {
			return errInjected
		}
		return nil
	})
	notice := m.Join(context.Background(), env.session("u1"), "g1", reloader)
	env.store.Reset()

	if notice.Variant != domain.NoticeError || notice.Message != "Unable to join group" {
		t.Fatalf("unexpected notice %+v", notice)
	}
	if reloader.n != 0 {
		t.Fatal("failed join must not reload the view")
	}
	if got := members(t, env, "g1"); !reflect.DeepEqual(got, []string{"owner"}) {
		t.Fatalf("expected membership unchanged, got %v", got)
	}
}

func TestMembershipController_JoinMissingGroup(t *testing.T) {
	env := newTestEnv(t)
	m := service.NewMembershipController(env.store)

	notice := m.Join(context.Background(), env.session("u1"), "nope", nil)
	if notice.Variant != domain.NoticeError {
		t.Fatalf("expected error notice, got %+v", notice)
	}
}

func TestMembershipController_OwnerCannotLeave(t *testing.T) {
	env := newTestEnv(t)
	env.seedGroup(t, groupSeed{id: "g1", name: "G", owner: "owner", members: []string{"owner", "u1"}})
	m := service.NewMembershipController(env.store)
	reloader := &countingReloader{}

	notice := m.Leave(context.Background(), env.session("owner"), "g1", reloader)
	if notice.Variant != domain.NoticeInfo || notice.Message != "Owners cannot leave their own group" {
		t.Fatalf("unexpected notice %+v", notice)
	}
	if reloader.n != 0 {
		t.Fatal("refused leave must not reload the view")
	}
	if got := members(t, env, "g1"); !reflect.DeepEqual(got, []string{"owner", "u1"}) {
		t.Fatalf("expected membership unchanged, got %v", got)
	}
}

func TestMembershipController_LeaveMissingGroup(t *testing.T) {
	env := newTestEnv(t)
	m := service.NewMembershipController(env.store)

	notice := m.Leave(context.Background(), env.session("u1"), "nope", nil)
	if notice.Variant != domain.NoticeError || notice.Message != "Unable to leave group" {
		t.Fatalf("unexpected notice %+v", notice)
	}
}
