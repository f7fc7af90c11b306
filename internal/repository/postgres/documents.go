package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/msomdec/squadhub/internal/domain"
	"github.com/msomdec/squadhub/internal/repository/document"
)

// DocumentStore implements domain.DocumentStore with one jsonb table.
// Array membership uses the @> containment operator so the GIN index
// serves the membership queries.
type DocumentStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewDocumentStore(pool *pgxpool.Pool) *DocumentStore {
	return &DocumentStore{pool: pool, now: func() time.Time { return time.Now().UTC() }}
}

func (s *DocumentStore) Get(ctx context.Context, collectionPath, id string) (*domain.Document, error) {
	if _, err := document.CollectionID(collectionPath); err != nil {
		return nil, err
	}

	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection_path = $1 AND doc_id = $2`,
		collectionPath, id,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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
	if collectionID == "" || strings.Contains(collectionID, "/") {
		return nil, fmt.Errorf("%w: invalid collection id %q", domain.ErrInvalidInput, collectionID)
	}
	return s.query(ctx, "collection_id", collectionID, q)
}

func (s *DocumentStore) query(ctx context.Context, column, value string, q domain.Query) ([]domain.Document, error) {
	if err := document.ValidateQuery(q); err != nil {
		return nil, err
	}

	args := []any{value}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	var sb strings.Builder
	sb.WriteString("SELECT collection_path, doc_id, data FROM documents WHERE " + column + " = $1")

	for _, f := range q.Filters {
		switch f.Op {
		case domain.OpEqual:
			operand, err := json.Marshal(f.Value)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
			}
			sb.WriteString(" AND data -> " + arg(f.Field) + "::text = " + arg(string(operand)) + "::jsonb")
		case domain.OpArrayContains:
			operand, err := json.Marshal(map[string]any{f.Field: []any{f.Value}})
			if err != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
			}
			sb.WriteString(" AND data @> " + arg(string(operand)) + "::jsonb")
		case domain.OpArrayContainsAny:
			vals, _ := document.Values(f.Value)
			keys := make([]string, 0, len(vals))
			for _, v := range vals {
				str, ok := v.(string)
				if !ok {
					return nil, fmt.Errorf("%w: array-contains-any supports string values only", domain.ErrInvalidInput)
				}
				keys = append(keys, str)
			}
			if len(keys) == 0 {
				sb.WriteString(" AND false")
				continue
			}
			sb.WriteString(" AND data -> " + arg(f.Field) + "::text ?| " + arg(keys) + "::text[]")
		}
	}

	if q.OrderBy != "" {
		dir := "ASC"
		if q.Descending {
			dir = "DESC"
		}
		sb.WriteString(" ORDER BY data -> " + arg(q.OrderBy) + "::text " + dir + ", seq ASC")
	} else {
		sb.WriteString(" ORDER BY seq ASC")
	}
	if q.Limit > 0 {
		sb.WriteString(" LIMIT " + arg(q.Limit))
	}

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var (
			path, id string
			data     []byte
		)
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

	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (collection_path, collection_id, doc_id, data, created_at, updated_at)
		 VALUES ($1, $2, $3, $4::jsonb, $5, $5)
		 ON CONFLICT (collection_path, doc_id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		collectionPath, collectionID, id, string(data), now,
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

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var data []byte
	err = tx.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection_path = $1 AND doc_id = $2 FOR UPDATE`,
		collectionPath, id,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("load document %s/%s: %w", collectionPath, id, err)
	}

	var existing map[string]any
	if err := json.Unmarshal(data, &existing); err != nil {
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

	if _, err := tx.Exec(ctx,
		`UPDATE documents SET data = $1::jsonb, updated_at = $2 WHERE collection_path = $3 AND doc_id = $4`,
		string(encoded), now, collectionPath, id,
	); err != nil {
		return fmt.Errorf("update document %s/%s: %w", collectionPath, id, err)
	}
	return tx.Commit(ctx)
}

func decodeDocument(collectionPath, id string, data []byte) (*domain.Document, error) {
	fields := map[string]any{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode document %s/%s: %w", collectionPath, id, err)
	}
	return &domain.Document{ID: id, CollectionPath: collectionPath, Fields: fields}, nil
}
