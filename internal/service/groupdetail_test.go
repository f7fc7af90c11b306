package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/msomdec/squadhub/internal/domain"
	"github.com/msomdec/squadhub/internal/service"
)

func TestGroupDetailView_NotFoundNeverQueriesPosts(t *testing.T) {
	env := newTestEnv(t)
	v := service.NewGroupDetailView(env.store, env.session("u1"), "missing")

	err := v.Load(context.Background())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if v.State() != service.DetailNotFound {
		t.Fatalf("expected DetailNotFound, got %v", v.State())
	}
	if env.store.Touched("/posts") {
		t.Fatalf("posts must not be queried, calls: %v", env.store.Calls())
	}

	// NotFound is terminal.
	env.seedGroup(t, groupSeed{id: "missing", name: "late"})
	if err := v.Reload(context.Background()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after reload, got %v", err)
	}
}

func TestGroupDetailView_LoadReady(t *testing.T) {
	env := newTestEnv(t)
	env.seedGroup(t, groupSeed{id: "g1", name: "G", members: []string{"u1"}})
	env.seedPost(t, "g1", "p1", "First", ts(1))
	env.seedPost(t, "g1", "p2", "Second", ts(2))
	for i, id := range []string{"c1", "c2", "c3", "c4"} {
		env.seedComment(t, "g1", "p1", id, "msg "+id, ts(10+i))
	}
	env.seedComment(t, "g1", "p2", "c5", "msg c5", ts(5))

	v := service.NewGroupDetailView(env.store, env.session("u1"), "g1")
	if err := v.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v.State() != service.DetailReady || !v.IsMember() {
		t.Fatalf("expected ready member view, got state %v member %v", v.State(), v.IsMember())
	}

	threads := v.Threads()
	if len(threads) != 2 || threads[0].Post.ID != "p2" || threads[1].Post.ID != "p1" {
		t.Fatalf("expected posts [p2 p1], got %+v", threads)
	}
	if threads[0].Post.GroupID != "g1" {
		t.Fatalf("expected group id from parent path, got %q", threads[0].Post.GroupID)
	}
	if n := len(threads[1].Comments); n != service.CommentPreviewSize {
		t.Fatalf("expected %d comments in preview, got %d", service.CommentPreviewSize, n)
	}
	if threads[1].Comments[0].ID != "c4" {
		t.Fatalf("expected newest comment first, got %s", threads[1].Comments[0].ID)
	}

	activity := v.Activity()
	if len(activity) != 2 || activity[0].ID != "c4" || activity[1].ID != "c5" {
		t.Fatalf("unexpected activity %+v", activity)
	}
	if activity[0].PostTitle != "First" {
		t.Fatalf("expected post title on activity, got %q", activity[0].PostTitle)
	}
}

func TestGroupDetailView_PreviewFailureIsIsolated(t *testing.T) {
	env := newTestEnv(t)
	env.seedGroup(t, groupSeed{id: "g1", name: "G", members: []string{"u1"}})
	env.seedPost(t, "g1", "p1", "First", ts(1))
	env.seedPost(t, "g1", "p2", "Second", ts(2))
	env.seedComment(t, "g1", "p1", "c1", "hi", ts(3))
	env.seedComment(t, "g1", "p2", "c2", "yo", ts(4))

	env.store.FailOn(func(op, path string) error {
		if op == "query" && strings.Contains(path, "/p2/comments") {
			return errInjected
		}
		return nil
	})
	v := service.NewGroupDetailView(env.store, env.session("u1"), "g1")
	if err := v.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	threads := v.Threads()
	if threads[0].Post.ID != "p2" || threads[0].Err == nil {
		t.Fatalf("expected p2 preview to fail, got %+v", threads[0])
	}
	if threads[1].Err != nil || len(threads[1].Comments) != 1 {
		t.Fatalf("expected p1 preview to load, got %+v", threads[1])
	}
	if len(v.Activity()) != 1 || v.Activity()[0].ID != "c1" {
		t.Fatalf("unexpected activity %+v", v.Activity())
	}
}

func TestGroupDetailView_FailedReloadKeepsState(t *testing.T) {
	env := newTestEnv(t)
	env.seedGroup(t, groupSeed{id: "g1", name: "G", members: []string{"u1"}})
	env.seedPost(t, "g1", "p1", "First", ts(1))
	ctx := context.Background()

	v := service.NewGroupDetailView(env.store, env.session("u1"), "g1")
	if err := v.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	env.store.FailOn(func(op, path string) error {
		if op == "query" && strings.HasSuffix(path, "/posts") {
			return errInjected
		}
		return nil
	})
	if err := v.Reload(ctx); err == nil {
		t.Fatal("expected reload to fail")
	}
	if len(v.Threads()) != 1 || v.State() != service.DetailReady {
		t.Fatal("expected previous state to be kept")
	}
}

func TestGroupDetailView_SubmitPostRequiresMembership(t *testing.T) {
	env := newTestEnv(t)
	env.seedGroup(t, groupSeed{id: "g1", name: "G", members: []string{"owner"}})
	ctx := context.Background()

	v := service.NewGroupDetailView(env.store, env.session("u1"), "g1")
	if err := v.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v.IsMember() {
		t.Fatal("expected non-member")
	}
	env.store.Reset()

	if err := v.SubmitPost(ctx, "Hello", "World"); !errors.Is(err, domain.ErrNotMember) {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}
	if env.store.Touched("add") {
		t.Fatal("no post may be written for a non-member")
	}
}

func TestGroupDetailView_SubmitPostReverifiesMembership(t *testing.T) {
	env := newTestEnv(t)
	env.seedGroup(t, groupSeed{id: "g1", name: "G", members: []string{"owner", "u1"}})
	ctx := context.Background()

	v := service.NewGroupDetailView(env.store, env.session("u1"), "g1")
	if err := v.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	// Removed elsewhere after the page loaded.
	if err := env.store.Update(ctx, domain.GroupsCollection, "g1", map[string]any{"members": domain.ArrayRemove{"u1"}}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if err := v.SubmitPost(ctx, "Hello", "World"); !errors.Is(err, domain.ErrNotMember) {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}
}

func TestGroupDetailView_SubmitPostAndComment(t *testing.T) {
	env := newTestEnv(t)
	env.seedGroup(t, groupSeed{id: "g1", name: "G", members: []string{"u1"}})
	ctx := context.Background()

	v := service.NewGroupDetailView(env.store, env.session("u1"), "g1")
	if err := v.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := v.SubmitPost(ctx, "  ", "body"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := v.SubmitPost(ctx, "Hello", "World"); err != nil {
		t.Fatalf("SubmitPost: %v", err)
	}
	threads := v.Threads()
	if len(threads) != 1 {
		t.Fatalf("expected the new post after reload, got %d", len(threads))
	}
	post := threads[0].Post
	if post.AuthorID != "u1" || post.AuthorName != "Name u1" {
		t.Fatalf("unexpected author snapshot %+v", post)
	}

	if err := v.SubmitComment(ctx, "unknown", "hi"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unloaded post, got %v", err)
	}
	if err := v.SubmitComment(ctx, post.ID, ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	env.store.Reset()
	if err := v.SubmitComment(ctx, post.ID, "Nice post"); err != nil {
		t.Fatalf("SubmitComment: %v", err)
	}
	if env.store.Touched("get groups/g1") {
		t.Fatal("a comment must reload only its post's preview")
	}
	comments := v.Threads()[0].Comments
	if len(comments) != 1 || comments[0].Message != "Nice post" {
		t.Fatalf("unexpected comments %+v", comments)
	}
	if len(v.Activity()) != 1 || v.Activity()[0].PostTitle != "Hello" {
		t.Fatalf("unexpected activity %+v", v.Activity())
	}
}
