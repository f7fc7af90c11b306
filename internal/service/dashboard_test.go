package service_test

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/msomdec/squadhub/internal/domain"
	"github.com/msomdec/squadhub/internal/service"
)

func membersOf(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("m%d", i)
	}
	return out
}

func TestRankTrending(t *testing.T) {
	counts := []int{5, 3, 9, 1, 7, 2, 8, 4, 6, 0, 10, 11}
	groups := make([]domain.Group, len(counts))
	for i, c := range counts {
		groups[i] = domain.Group{ID: fmt.Sprint(c), Members: membersOf(c)}
	}

	got := groupIDs(service.RankTrending(groups, 6))
	want := []string{"11", "10", "9", "8", "7", "6"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestRankTrending_TiesKeepFetchOrder(t *testing.T) {
	groups := []domain.Group{
		{ID: "a", Members: membersOf(1)},
		{ID: "b", Members: membersOf(2)},
		{ID: "c", Members: membersOf(1)},
	}
	if got := groupIDs(service.RankTrending(groups, 6)); !reflect.DeepEqual(got, []string{"b", "a", "c"}) {
		t.Fatalf("expected [b a c], got %v", got)
	}
}

func TestDashboardAggregator_Bootstrap(t *testing.T) {
	env := newTestEnv(t)
	counts := []int{5, 3, 9, 1, 7, 2, 8, 4, 6, 0, 10, 11}
	for i, c := range counts {
		members := membersOf(c)
		if i == 0 {
			members[0] = "me"
		}
		env.seedGroup(t, groupSeed{
			id:        fmt.Sprintf("g%02d", i),
			name:      fmt.Sprint(c),
			tags:      []string{"Tag" + fmt.Sprint(i%3)},
			members:   members,
			owner:     "someone",
			createdAt: ts(i),
		})
	}
	env.seedPost(t, "g00", "p1", "one", ts(1))
	env.seedPost(t, "g05", "p2", "two", ts(2))

	agg := service.NewDashboardAggregator(env.store)
	d := agg.Bootstrap(context.Background(), env.session("me", "Tag1"))

	if d.Notice != nil {
		t.Fatalf("unexpected notice %+v", d.Notice)
	}

	var trending []string
	for _, g := range d.Trending.Items {
		trending = append(trending, g.Name)
	}
	if !reflect.DeepEqual(trending, []string{"11", "10", "9", "8", "7", "6"}) {
		t.Fatalf("unexpected trending %v", trending)
	}

	if len(d.Recommended.Items) != 4 {
		t.Fatalf("expected 4 groups tagged Tag1, got %d", len(d.Recommended.Items))
	}
	for _, g := range d.Recommended.Items {
		if g.Tags[0] != "Tag1" {
			t.Fatalf("unexpected recommended group %+v", g)
		}
	}

	if got := []string{d.RecentPosts.Items[0].ID, d.RecentPosts.Items[1].ID}; !reflect.DeepEqual(got, []string{"p2", "p1"}) {
		t.Fatalf("expected [p2 p1], got %v", got)
	}
	if d.RecentPosts.Items[0].GroupID != "g05" {
		t.Fatalf("expected group id from parent path, got %q", d.RecentPosts.Items[0].GroupID)
	}

	if got := groupIDs(d.MyGroups.Items); !reflect.DeepEqual(got, []string{"g00"}) {
		t.Fatalf("expected [g00], got %v", got)
	}
}

func TestDashboardAggregator_RecommendedFallsBackToNewest(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 8; i++ {
		env.seedGroup(t, groupSeed{id: fmt.Sprintf("g%d", i), name: "g", createdAt: ts(i)})
	}

	d := service.NewDashboardAggregator(env.store).Bootstrap(context.Background(), env.session("me"))
	want := []string{"g7", "g6", "g5", "g4", "g3", "g2"}
	if got := groupIDs(d.Recommended.Items); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestDashboardAggregator_SectionFailureIsIsolated(t *testing.T) {
	env := newTestEnv(t)
	env.seedGroup(t, groupSeed{id: "g1", name: "g", members: []string{"me"}, createdAt: ts(1)})
	env.store.FailOn(func(op, _ string) error {
		if op == "group" {
			return errInjected
		}
		return nil
	})

	d := service.NewDashboardAggregator(env.store).Bootstrap(context.Background(), env.session("me"))
	if d.RecentPosts.Err == nil {
		t.Fatal("expected recent posts section to fail")
	}
	if d.Notice == nil || d.Notice.Message != "Unable to load dashboard data" {
		t.Fatalf("expected one generic notice, got %+v", d.Notice)
	}
	if d.MyGroups.Err != nil || len(d.MyGroups.Items) != 1 {
		t.Fatalf("expected my groups to render, got %+v", d.MyGroups)
	}
	if d.Trending.Err != nil || d.Recommended.Err != nil {
		t.Fatal("expected other sections to succeed")
	}
}
