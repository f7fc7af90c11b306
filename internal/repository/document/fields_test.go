package document_test

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/msomdec/squadhub/internal/domain"
	"github.com/msomdec/squadhub/internal/repository/document"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestMerge_ArrayUnionIsIdempotent(t *testing.T) {
	existing := map[string]any{"members": []any{"u1"}}

	once, err := document.Merge(existing, map[string]any{"members": domain.ArrayUnion{"u2"}}, testNow)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	twice, err := document.Merge(once, map[string]any{"members": domain.ArrayUnion{"u2"}}, testNow)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	want := []any{"u1", "u2"}
	if !reflect.DeepEqual(twice["members"], want) {
		t.Fatalf("expected %v, got %v", want, twice["members"])
	}
	if !reflect.DeepEqual(existing["members"], []any{"u1"}) {
		t.Fatalf("existing map was modified: %v", existing["members"])
	}
}

func TestMerge_ArrayRemove(t *testing.T) {
	existing := map[string]any{"members": []any{"u1", "u2", "u1"}, "name": "Robotics"}

	got, err := document.Merge(existing, map[string]any{"members": domain.ArrayRemove{"u1"}}, testNow)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if !reflect.DeepEqual(got["members"], []any{"u2"}) {
		t.Fatalf("expected [u2], got %v", got["members"])
	}
	if got["name"] != "Robotics" {
		t.Fatalf("untouched field changed: %v", got["name"])
	}
}

func TestMerge_ArrayRemoveOnMissingField(t *testing.T) {
	got, err := document.Merge(map[string]any{}, map[string]any{"members": domain.ArrayRemove{"u1"}}, testNow)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if arr, ok := got["members"].([]any); !ok || len(arr) != 0 {
		t.Fatalf("expected empty array, got %#v", got["members"])
	}
}

func TestPrepare_ServerTimestamp(t *testing.T) {
	got, err := document.Prepare(map[string]any{
		"createdAt": domain.ServerTimestamp,
		"tags":      []string{"a", "b"},
	}, testNow)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if got["createdAt"] != "2024-03-01T12:00:00.000000000Z" {
		t.Fatalf("unexpected timestamp %v", got["createdAt"])
	}
	if !reflect.DeepEqual(got["tags"], []any{"a", "b"}) {
		t.Fatalf("expected normalized tags, got %#v", got["tags"])
	}
}

func TestValidateField(t *testing.T) {
	for _, name := range []string{"name", "ownerId", "_x1"} {
		if err := document.ValidateField(name); err != nil {
			t.Fatalf("%q: unexpected error %v", name, err)
		}
	}
	for _, name := range []string{"", "a.b", "x'); DROP", "1abc"} {
		if err := document.ValidateField(name); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("%q: expected ErrInvalidInput, got %v", name, err)
		}
	}
}

func TestCollectionID(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"groups", "groups", false},
		{"groups/g1/posts", "posts", false},
		{"groups/g1/posts/p1/comments", "comments", false},
		{"groups/g1", "", true},
		{"groups//posts", "", true},
	}
	for _, tc := range tests {
		got, err := document.CollectionID(tc.path)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tc.path)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("%q: got %q, %v", tc.path, got, err)
		}
	}
}

func TestValidateQuery_ContainsAnyCap(t *testing.T) {
	vals := make([]string, domain.MaxContainsAny+1)
	for i := range vals {
		vals[i] = "t"
	}
	q := domain.Query{Filters: []domain.Filter{domain.Where("tags", domain.OpArrayContainsAny, vals)}}
	if err := document.ValidateQuery(q); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
