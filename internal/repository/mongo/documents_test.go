package mongo_test

import (
	"context"
	"errors"
	"os"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/msomdec/squadhub/internal/domain"
	"github.com/msomdec/squadhub/internal/repository/mongo"
)

var _ domain.DocumentStore = (*mongo.DocumentStore)(nil)
var _ domain.Database = (*mongo.DB)(nil)

func newTestStore(t *testing.T) *mongo.DocumentStore {
	t.Helper()
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	db, err := mongo.New(ctx, uri, "squadhub_test_"+uuid.NewString()[:8])
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Database.Drop(context.Background())
		db.Close()
	})
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db.Documents()
}

func TestDocumentStore_QueryAndUpdate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, g := range []struct{ id, owner, created string }{
		{"g1", "u1", "2024-01-01T00:00:00.000000000Z"},
		{"g2", "u2", "2024-01-03T00:00:00.000000000Z"},
		{"g3", "u2", "2024-01-02T00:00:00.000000000Z"},
	} {
		err := store.Set(ctx, "groups", g.id, map[string]any{
			"ownerId":   g.owner,
			"members":   []string{g.owner},
			"tags":      []string{"Tag-" + g.id},
			"createdAt": g.created,
		})
		if err != nil {
			t.Fatalf("Set %s: %v", g.id, err)
		}
	}

	docs, err := store.Query(ctx, "groups", domain.Query{OrderBy: "createdAt", Descending: true})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	got := make([]string, len(docs))
	for i, d := range docs {
		got[i] = d.ID
	}
	if !reflect.DeepEqual(got, []string{"g2", "g3", "g1"}) {
		t.Fatalf("expected [g2 g3 g1], got %v", got)
	}

	docs, err = store.Query(ctx, "groups", domain.Query{Filters: []domain.Filter{domain.Where("tags", domain.OpArrayContainsAny, []string{"Tag-g1"})}})
	if err != nil {
		t.Fatalf("Query contains any: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "g1" {
		t.Fatalf("expected only g1, got %v", docs)
	}

	// Equality compares whole values; an array holding the operand is no match.
	if err := store.Set(ctx, "groups", "g4", map[string]any{"ownerId": []string{"u1", "u2"}}); err != nil {
		t.Fatalf("Set g4: %v", err)
	}
	docs, err = store.Query(ctx, "groups", domain.Query{Filters: []domain.Filter{domain.Where("ownerId", domain.OpEqual, "u1")}})
	if err != nil {
		t.Fatalf("Query equal: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "g1" {
		t.Fatalf("expected only g1, got %v", docs)
	}
	docs, err = store.Query(ctx, "groups", domain.Query{Filters: []domain.Filter{domain.Where("members", domain.OpArrayContains, "u2")}})
	if err != nil {
		t.Fatalf("Query contains: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected g2 and g3, got %v", docs)
	}

	if err := store.Update(ctx, "groups", "g1", map[string]any{"members": domain.ArrayUnion{"u2", "u1"}}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	doc, err := store.Get(ctx, "groups", "g1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(doc.Fields["members"], []any{"u1", "u2"}) {
		t.Fatalf("expected [u1 u2], got %v", doc.Fields["members"])
	}

	if err := store.Update(ctx, "groups", "missing", map[string]any{"name": "x"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
