package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/squadhub/internal/domain"
	"github.com/msomdec/squadhub/internal/repository/document"
)

// DocumentStore implements domain.DocumentStore on a single SQLite table,
// using the JSON1 functions for field filters and ordering.
type DocumentStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewDocumentStore creates a DocumentStore on an already migrated database.
func NewDocumentStore(db *sql.DB) *DocumentStore {
	return &DocumentStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *DocumentStore) Get(ctx context.Context, collectionPath, id string) (*domain.Document, error) {
	if _, err := document.CollectionID(collectionPath); err != nil {
		return nil, err
	}

	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection_path = ? AND doc_id = ?`,
		collectionPath, id,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get document %s/%s: %w", collectionPath, id, err)
	}
	return decodeDocument(collectionPath, id, data)
}

func (s *DocumentStore) Query(ctx context.Context, collectionPath string, q domain.Query) ([]domain.Document, error) {
	if _, err := document.CollectionID(collectionPath); err != nil {
		return nil, err
	}
	return s.query(ctx, "collection_path", collectionPath, q)
}

func (s *DocumentStore) QueryGroup(ctx context.Context, collectionID string, q domain.Query) ([]domain.Document, error) {
	if strings.Contains(collectionID, "/") || collectionID == "" {
		return nil, fmt.Errorf("%w: invalid collection id %q", domain.ErrInvalidInput, collectionID)
	}
	return s.query(ctx, "collection_id", collectionID, q)
}

func (s *DocumentStore) query(ctx context.Context, column, value string, q domain.Query) ([]domain.Document, error) {
	if err := document.ValidateQuery(q); err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT collection_path, doc_id, data FROM documents WHERE ")
	sb.WriteString(column)
	sb.WriteString(" = ?")
	args := []any{value}

	for _, f := range q.Filters {
		path := "$." + f.Field
		switch f.Op {
		case domain.OpEqual:
			sb.WriteString(" AND json_extract(data, ?) = ?")
			args = append(args, path, sqlValue(f.Value))
		case domain.OpArrayContains:
			sb.WriteString(" AND EXISTS (SELECT 1 FROM json_each(data, ?) WHERE json_each.value = ?)")
			args = append(args, path, sqlValue(f.Value))
		case domain.OpArrayContainsAny:
			vals, _ := document.Values(f.Value)
			if len(vals) == 0 {
				sb.WriteString(" AND 0")
				continue
			}
			sb.WriteString(" AND EXISTS (SELECT 1 FROM json_each(data, ?) WHERE json_each.value IN (")
			sb.WriteString(strings.TrimSuffix(strings.Repeat("?, ", len(vals)), ", "))
			sb.WriteString("))")
			args = append(args, path)
			for _, v := range vals {
				args = append(args, sqlValue(v))
			}
		}
	}

	if q.OrderBy != "" {
		dir := "ASC"
		if q.Descending {
			dir = "DESC"
		}
		sb.WriteString(" ORDER BY json_extract(data, ?) " + dir + ", seq ASC")
		args = append(args, "$."+q.OrderBy)
	} else {
		sb.WriteString(" ORDER BY seq ASC")
	}
	if q.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var path, id, data string
		if err := rows.Scan(&path, &id, &data); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc, err := decodeDocument(path, id, data)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
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
	now := s.now()
	prepared, err := document.Prepare(fields, now)
	if err != nil {
		return err
	}
	data, err := json.Marshal(prepared)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection_path, collection_id, doc_id, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (collection_path, doc_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		collectionPath, collectionID, id, string(data), now, now,
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var data string
	err = tx.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection_path = ? AND doc_id = ?`,
		collectionPath, id,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("load document %s/%s: %w", collectionPath, id, err)
	}

	var existing map[string]any
	if err := json.Unmarshal([]byte(data), &existing); err != nil {
		return fmt.Errorf("decode document %s/%s: %w", collectionPath, id, err)
	}

	now := s.now()
	merged, err := document.Merge(existing, fields, now)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET data = ?, updated_at = ? WHERE collection_path = ? AND doc_id = ?`,
		string(encoded), now, collectionPath, id,
	); err != nil {
		return fmt.Errorf("update document %s/%s: %w", collectionPath, id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func decodeDocument(collectionPath, id, data string) (*domain.Document, error) {
	fields := map[string]any{}
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return nil, fmt.Errorf("decode document %s/%s: %w", collectionPath, id, err)
	}
	return &domain.Document{ID: id, CollectionPath: collectionPath, Fields: fields}, nil
}

// sqlValue maps a filter operand onto what json_extract and json_each
// yield for the same JSON value.
func sqlValue(v any) any {
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	return v
}
