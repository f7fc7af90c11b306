package sqlite_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/msomdec/squadhub/internal/domain"
)

func ids(docs []domain.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

func TestDocumentStore_SetGet(t *testing.T) {
	store := newTestDB(t).Documents()
	ctx := context.Background()

	err := store.Set(ctx, "users", "u1", map[string]any{
		"name":      "Ada",
		"interests": []string{"AI/ML"},
		"createdAt": domain.ServerTimestamp,
	})
	if err != nil {
		t.Fatalf("Set: %v", err)
	}

	doc, err := store.Get(ctx, "users", "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if doc.Fields["name"] != "Ada" {
		t.Fatalf("expected name Ada, got %v", doc.Fields["name"])
	}
	if _, ok := doc.Fields["createdAt"].(string); !ok {
		t.Fatalf("expected createdAt to be resolved to a timestamp string, got %T", doc.Fields["createdAt"])
	}

	if _, err := store.Get(ctx, "users", "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDocumentStore_QueryFilters(t *testing.T) {
	store := newTestDB(t).Documents()
	ctx := context.Background()

	seed := []struct {
		id      string
		owner   string
		tags    []string
		members []string
		created string
	}{
		{"g1", "u1", []string{"AI/ML"}, []string{"u1"}, "2024-01-01T00:00:00.000000000Z"},
		{"g2", "u2", []string{"Gaming", "Design"}, []string{"u2", "u1"}, "2024-01-03T00:00:00.000000000Z"},
		{"g3", "u2", []string{"Robotics"}, []string{"u2"}, "2024-01-02T00:00:00.000000000Z"},
	}
	for _, g := range seed {
		if err := store.Set(ctx, "groups", g.id, map[string]any{
			"ownerId":   g.owner,
			"tags":      g.tags,
			"members":   g.members,
			"createdAt": g.created,
		}); err != nil {
			t.Fatalf("Set %s: %v", g.id, err)
		}
	}

	tests := []struct {
		name string
		q    domain.Query
		want []string
	}{
		{"all newest first", domain.Query{OrderBy: "createdAt", Descending: true}, []string{"g2", "g3", "g1"}},
		{"insertion order", domain.Query{}, []string{"g1", "g2", "g3"}},
		{"equality", domain.Query{Filters: []domain.Filter{domain.Where("ownerId", domain.OpEqual, "u2")}}, []string{"g2", "g3"}},
		{"array contains", domain.Query{Filters: []domain.Filter{domain.Where("members", domain.OpArrayContains, "u1")}}, []string{"g1", "g2"}},
		{"contains any", domain.Query{Filters: []domain.Filter{domain.Where("tags", domain.OpArrayContainsAny, []string{"Robotics", "AI/ML"})}}, []string{"g1", "g3"}},
		{"contains any empty", domain.Query{Filters: []domain.Filter{domain.Where("tags", domain.OpArrayContainsAny, []string{})}}, []string{}},
		{"limit", domain.Query{OrderBy: "createdAt", Descending: true, Limit: 2}, []string{"g2", "g3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := store.Query(ctx, "groups", tt.q)
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			got := ids(docs)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestDocumentStore_QueryRejectsTooManyValues(t *testing.T) {
	store := newTestDB(t).Documents()
	vals := make([]string, domain.MaxContainsAny+1)
	for i := range vals {
		vals[i] = fmt.Sprintf("t%d", i)
	}
	_, err := store.Query(context.Background(), "groups", domain.Query{
		Filters: []domain.Filter{domain.Where("tags", domain.OpArrayContainsAny, vals)},
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDocumentStore_QueryGroup(t *testing.T) {
	store := newTestDB(t).Documents()
	ctx := context.Background()

	if err := store.Set(ctx, domain.PostsPath("g1"), "p1", map[string]any{"title": "a", "createdAt": "2024-01-01T00:00:00.000000000Z"}); err != nil {
		t.Fatalf("Set p1: %v", err)
	}
	if err := store.Set(ctx, domain.PostsPath("g2"), "p2", map[string]any{"title": "b", "createdAt": "2024-01-02T00:00:00.000000000Z"}); err != nil {
		t.Fatalf("Set p2: %v", err)
	}
	// A top-level collection with the same id must not be matched by path.
	if err := store.Set(ctx, "groups", "g1", map[string]any{"name": "g"}); err != nil {
		t.Fatalf("Set g1: %v", err)
	}

	docs, err := store.QueryGroup(ctx, domain.PostsCollection, domain.Query{OrderBy: "createdAt", Descending: true})
	if err != nil {
		t.Fatalf("QueryGroup: %v", err)
	}
	if got := ids(docs); !reflect.DeepEqual(got, []string{"p2", "p1"}) {
		t.Fatalf("expected [p2 p1], got %v", got)
	}
	if docs[0].ParentID() != "g2" {
		t.Fatalf("expected parent g2, got %q", docs[0].ParentID())
	}
}

func TestDocumentStore_UpdateArrayOps(t *testing.T) {
	store := newTestDB(t).Documents()
	ctx := context.Background()

	id, err := store.Add(ctx, "groups", map[string]any{"name": "Go", "members": []string{"u1"}})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	// Union is idempotent.
	for i := 0; i < 2; i++ {
		if err := store.Update(ctx, "groups", id, map[string]any{"members": domain.ArrayUnion{"u2"}}); err != nil {
			t.Fatalf("Update union: %v", err)
		}
	}
	doc, err := store.Get(ctx, "groups", id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got := doc.Fields["members"]; !reflect.DeepEqual(got, []any{"u1", "u2"}) {
		t.Fatalf("expected [u1 u2], got %v", got)
	}

	if err := store.Update(ctx, "groups", id, map[string]any{"members": domain.ArrayRemove{"u1"}}); err != nil {
		t.Fatalf("Update remove: %v", err)
	}
	doc, err = store.Get(ctx, "groups", id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got := doc.Fields["members"]; !reflect.DeepEqual(got, []any{"u2"}) {
		t.Fatalf("expected [u2], got %v", got)
	}
	if doc.Fields["name"] != "Go" {
		t.Fatalf("expected untouched name, got %v", doc.Fields["name"])
	}

	if err := store.Update(ctx, "groups", "missing", map[string]any{"name": "x"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDocumentStore_InvalidPath(t *testing.T) {
	store := newTestDB(t).Documents()
	if _, err := store.Get(context.Background(), "groups/g1", "x"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
