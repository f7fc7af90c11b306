package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is fixed-width so that lexical order equals
// chronological order in every document backend.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z"

// FormatTimestamp renders t in TimestampLayout (UTC).
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// FilterOp is a document query comparison.
type FilterOp string

const (
	OpEqual            FilterOp = "=="
	OpArrayContains    FilterOp = "array-contains"
	OpArrayContainsAny FilterOp = "array-contains-any"
)

// MaxContainsAny caps the value list of an array-contains-any filter.
const MaxContainsAny = 10

// Filter restricts a query to documents whose Field matches Value under Op.
// For OpArrayContainsAny, Value must be a []string or []any.
type Filter struct {
	Field string
	Op    FilterOp
	Value any
}

// Where is shorthand for building a Filter.
func Where(field string, op FilterOp, value any) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

// Query describes a bounded read. A zero Limit means unbounded.
// Without OrderBy, results come back in insertion order; with OrderBy,
// ties keep insertion order.
type Query struct {
	Filters    []Filter
	OrderBy    string
	Descending bool
	Limit      int
}

// ArrayUnion adds each value to an array field unless already present.
type ArrayUnion []any

// ArrayRemove removes every occurrence of each value from an array field.
type ArrayRemove []any

type serverTimestamp struct{}

// ServerTimestamp is replaced by the store's clock when written.
var ServerTimestamp = serverTimestamp{}

// Document is a stored record: its id, the collection path that holds it
// (for example "groups/g1/posts") and its decoded fields.
type Document struct {
	ID             string
	CollectionPath string
	Fields         map[string]any
}

// Path returns the full document path.
func (d Document) Path() string {
	return d.CollectionPath + "/" + d.ID
}

// ParentID returns the id of the document owning this document's
// collection, or "" for top-level collections.
func (d Document) ParentID() string {
	segs := strings.Split(d.CollectionPath, "/")
	if len(segs) < 2 {
		return ""
	}
	return segs[len(segs)-2]
}

// DataTo decodes the document fields into v using its json tags.
func (d Document) DataTo(v any) error {
	raw, err := json.Marshal(d.Fields)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", d.Path(), err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode document %s: %w", d.Path(), err)
	}
	return nil
}

// DocumentStore is the remote document database capability.
type DocumentStore interface {
	// Get returns ErrNotFound when the document is absent.
	Get(ctx context.Context, collectionPath, id string) (*Document, error)
	Query(ctx context.Context, collectionPath string, q Query) ([]Document, error)
	// QueryGroup scans every collection whose last path segment is collectionID.
	QueryGroup(ctx context.Context, collectionID string, q Query) ([]Document, error)
	Add(ctx context.Context, collectionPath string, fields map[string]any) (string, error)
	Set(ctx context.Context, collectionPath, id string, fields map[string]any) error
	// Update merges fields into an existing document, applying ArrayUnion and
	// ArrayRemove values atomically. Returns ErrNotFound when absent.
	Update(ctx context.Context, collectionPath, id string, fields map[string]any) error
}

// Collection names and paths.
const (
	UsersCollection    = "users"
	GroupsCollection   = "groups"
	PostsCollection    = "posts"
	CommentsCollection = "comments"
)

// PostsPath returns the posts collection of a group.
func PostsPath(groupID string) string {
	return GroupsCollection + "/" + groupID + "/" + PostsCollection
}

// CommentsPath returns the comments collection of a post.
func CommentsPath(groupID, postID string) string {
	return PostsPath(groupID) + "/" + postID + "/" + CommentsCollection
}
