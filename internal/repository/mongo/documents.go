package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/squadhub/internal/domain"
	"github.com/msomdec/squadhub/internal/repository/document"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// record is the stored shape. Fields live under data so that field
// filters become "data.<field>" paths.
type record struct {
	ID             bson.ObjectID `bson:"_id,omitempty"`
	CollectionPath string        `bson:"collectionPath"`
	CollectionID   string        `bson:"collectionId"`
	DocID          string        `bson:"docId"`
	Data           bson.Raw      `bson:"data"`
}

// DocumentStore implements domain.DocumentStore on one MongoDB collection.
// Array unions and removals map onto $addToSet and $pull, so updates are
// atomic without a transaction.
type DocumentStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewDocumentStore(coll *mongo.Collection) *DocumentStore {
	return &DocumentStore{coll: coll, now: func() time.Time { return time.Now().UTC() }}
}

func (s *DocumentStore) Get(ctx context.Context, collectionPath, id string) (*domain.Document, error) {
	if _, err := document.CollectionID(collectionPath); err != nil {
		return nil, err
	}

	var rec record
	err := s.coll.FindOne(ctx, bson.D{
		{Key: "collectionPath", Value: collectionPath},
		{Key: "docId", Value: id},
	}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get document %s/%s: %w", collectionPath, id, err)
	}
	return decodeRecord(rec)
}

func (s *DocumentStore) Query(ctx context.Context, collectionPath string, q domain.Query) ([]domain.Document, error) {
	if _, err := document.CollectionID(collectionPath); err != nil {
		return nil, err
	}
	return s.query(ctx, bson.E{Key: "collectionPath", Value: collectionPath}, q)
}

func (s *DocumentStore) QueryGroup(ctx context.Context, collectionID string, q domain.Query) ([]domain.Document, error) {
	if collectionID == "" || strings.Contains(collectionID, "/") {
		return nil, fmt.Errorf("%w: invalid collection id %q", domain.ErrInvalidInput, collectionID)
	}
	return s.query(ctx, bson.E{Key: "collectionId", Value: collectionID}, q)
}

func (s *DocumentStore) query(ctx context.Context, scope bson.E, q domain.Query) ([]domain.Document, error) {
	if err := document.ValidateQuery(q); err != nil {
		return nil, err
	}

	filter := bson.D{scope}
	for _, f := range q.Filters {
		key := "data." + f.Field
		switch f.Op {
		case domain.OpEqual:
			filter = append(filter, bson.E{Key: key, Value: equalTo(f.Value)})
		case domain.OpArrayContains:
			// Matching a scalar against an array field tests membership.
			filter = append(filter, bson.E{Key: key, Value: f.Value})
		case domain.OpArrayContainsAny:
			vals, _ := document.Values(f.Value)
			filter = append(filter, bson.E{Key: key, Value: bson.D{{Key: "$in", Value: vals}}})
		}
	}

	opts := options.Find()
	if q.OrderBy != "" {
		dir := 1
		if q.Descending {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: "data." + q.OrderBy, Value: dir}, {Key: "_id", Value: 1}})
	} else {
		opts.SetSort(bson.D{{Key: "_id", Value: 1}})
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer cur.Close(ctx)

	var docs []domain.Document
	for cur.Next(ctx) {
		var rec record
		if err := cur.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		doc, err := decodeRecord(rec)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, cur.Err()
}

// equalTo compares the whole field value. A bare scalar match would also
// hit array fields holding that element, so scalars exclude arrays.
func equalTo(v any) bson.D {
	if vals, err := document.Values(v); err == nil {
		return bson.D{{Key: "$eq", Value: vals}}
	}
	return bson.D{
		{Key: "$eq", Value: v},
		{Key: "$not", Value: bson.D{{Key: "$type", Value: "array"}}},
	}
}

func (s *DocumentStore) Add(ctx context.Context, collectionPath string, fields map[string]any) (string, error) {
	id := uuid.NewString()
	if err := s.Set(ctx, collectionPath, id, fields); err != nil {
		return "", err
	}
	return id, nil
}

func (s *DocumentStore) Set(ctx context.Context, collectionPath, id string, fields map[string]any) error {
	collectionID, err := document.CollectionID(collectionPath)
	if err != nil {
		return err
	}
	prepared, err := document.Prepare(fields, s.now())
	if err != nil {
		return err
	}

	_, err = s.coll.UpdateOne(ctx,
		bson.D{{Key: "collectionPath", Value: collectionPath}, {Key: "docId", Value: id}},
		bson.D{
			{Key: "$set", Value: bson.D{{Key: "data", Value: prepared}}},
			{Key: "$setOnInsert", Value: bson.D{{Key: "collectionId", Value: collectionID}}},
		},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("set document %s/%s: %w", collectionPath, id, err)
	}
	return nil
}

func (s *DocumentStore) Update(ctx context.Context, collectionPath, id string, fields map[string]any) error {
	if _, err := document.CollectionID(collectionPath); err != nil {
		return err
	}

	plain := map[string]any{}
	var addToSet, pull bson.D
	for k, v := range fields {
		if err := document.ValidateField(k); err != nil {
			return err
		}
		switch val := v.(type) {
		case domain.ArrayUnion:
			vals, err := normalizeAll(val)
			if err != nil {
				return err
			}
			addToSet = append(addToSet, bson.E{Key: "data." + k, Value: bson.D{{Key: "$each", Value: vals}}})
		case domain.ArrayRemove:
			vals, err := normalizeAll(val)
			if err != nil {
				return err
			}
			pull = append(pull, bson.E{Key: "data." + k, Value: bson.D{{Key: "$in", Value: vals}}})
		default:
			plain[k] = v
		}
	}

	resolved, err := document.Prepare(plain, s.now())
	if err != nil {
		return err
	}
	var set bson.D
	for k, v := range resolved {
		set = append(set, bson.E{Key: "data." + k, Value: v})
	}

	update := bson.D{}
	if len(set) > 0 {
		update = append(update, bson.E{Key: "$set", Value: set})
	}
	if len(addToSet) > 0 {
		update = append(update, bson.E{Key: "$addToSet", Value: addToSet})
	}
	if len(pull) > 0 {
		update = append(update, bson.E{Key: "$pull", Value: pull})
	}
	filter := bson.D{{Key: "collectionPath", Value: collectionPath}, {Key: "docId", Value: id}}

	if len(update) == 0 {
		n, err := s.coll.CountDocuments(ctx, filter)
		if err != nil {
			return fmt.Errorf("update document %s/%s: %w", collectionPath, id, err)
		}
		if n == 0 {
			return domain.ErrNotFound
		}
		return nil
	}

	res, err := s.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update document %s/%s: %w", collectionPath, id, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func normalizeAll(vals []any) ([]any, error) {
	out := make([]any, 0, len(vals))
	for _, v := range vals {
		nv, err := document.Normalize(v)
		if err != nil {
			return nil, err
		}
		out = append(out, nv)
	}
	return out, nil
}

// decodeRecord converts the BSON payload to plain JSON values so every
// backend hands the same shapes to Document.DataTo.
func decodeRecord(rec record) (*domain.Document, error) {
	fields := map[string]any{}
	if len(rec.Data) > 0 {
		raw, err := bson.MarshalExtJSON(rec.Data, false, false)
		if err != nil {
			return nil, fmt.Errorf("decode document %s/%s: %w", rec.CollectionPath, rec.DocID, err)
		}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("decode document %s/%s: %w", rec.CollectionPath, rec.DocID, err)
		}
	}
	return &domain.Document{ID: rec.DocID, CollectionPath: rec.CollectionPath, Fields: fields}, nil
}
