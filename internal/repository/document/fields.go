// Package document holds backend-neutral helpers shared by the document
// store implementations: path and field validation, server timestamp
// resolution and array set-merge semantics.
package document

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/msomdec/squadhub/internal/domain"
)

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateField rejects field names that cannot be used in a query path.
func ValidateField(name string) error {
	if !fieldPattern.MatchString(name) {
		return fmt.Errorf("%w: invalid field name %q", domain.ErrInvalidInput, name)
	}
	return nil
}

// CollectionID validates a collection path ("groups", "groups/g1/posts")
// and returns its last segment.
func CollectionID(path string) (string, error) {
	segs := strings.Split(path, "/")
	if len(segs)%2 == 0 {
		return "", fmt.Errorf("%w: %q is not a collection path", domain.ErrInvalidInput, path)
	}
	for _, s := range segs {
		if s == "" {
			return "", fmt.Errorf("%w: empty segment in %q", domain.ErrInvalidInput, path)
		}
	}
	return segs[len(segs)-1], nil
}

// ValidateQuery checks field names, operators and bounds of q.
func ValidateQuery(q domain.Query) error {
	for _, f := range q.Filters {
		if err := ValidateField(f.Field); err != nil {
			return err
		}
		switch f.Op {
		case domain.OpEqual, domain.OpArrayContains:
		case domain.OpArrayContainsAny:
			vals, err := Values(f.Value)
			if err != nil {
				return err
			}
			if len(vals) > domain.MaxContainsAny {
				return fmt.Errorf("%w: array-contains-any takes at most %d values", domain.ErrInvalidInput, domain.MaxContainsAny)
			}
		default:
			return fmt.Errorf("%w: unsupported operator %q", domain.ErrInvalidInput, f.Op)
		}
	}
	if q.OrderBy != "" {
		if err := ValidateField(q.OrderBy); err != nil {
			return err
		}
	}
	if q.Limit < 0 {
		return fmt.Errorf("%w: negative limit", domain.ErrInvalidInput)
	}
	return nil
}

// Values converts an array-contains-any operand to a slice of JSON values.
func Values(v any) ([]any, error) {
	switch vals := v.(type) {
	case []any:
		return vals, nil
	case []string:
		out := make([]any, len(vals))
		for i, s := range vals {
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: array-contains-any needs a list, got %T", domain.ErrInvalidInput, v)
	}
}

// Prepare resolves sentinels in fields for a full write (add or set).
// ArrayUnion becomes a de-duplicated array and ArrayRemove an empty one.
func Prepare(fields map[string]any, now time.Time) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if err := ValidateField(k); err != nil {
			return nil, err
		}
		switch val := v.(type) {
		case domain.ArrayUnion:
			arr, err := union(nil, val)
			if err != nil {
				return nil, err
			}
			out[k] = arr
		case domain.ArrayRemove:
			out[k] = []any{}
		default:
			resolved, err := resolve(v, now)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", k, err)
			}
			out[k] = resolved
		}
	}
	return out, nil
}

// Merge applies a partial update to existing and returns the result.
// existing is not modified.
func Merge(existing, patch map[string]any, now time.Time) (map[string]any, error) {
	out := make(map[string]any, len(existing)+len(patch))
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range patch {
		if err := ValidateField(k); err != nil {
			return nil, err
		}
		switch val := v.(type) {
		case domain.ArrayUnion:
			current, _ := out[k].([]any)
			arr, err := union(current, val)
			if err != nil {
				return nil, err
			}
			out[k] = arr
		case domain.ArrayRemove:
			current, _ := out[k].([]any)
			arr, err := remove(current, val)
			if err != nil {
				return nil, err
			}
			out[k] = arr
		default:
			resolved, err := resolve(v, now)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", k, err)
			}
			out[k] = resolved
		}
	}
	return out, nil
}

// Normalize round-trips v through JSON so values compare the way they
// will after being read back from storage.
func Normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func resolve(v any, now time.Time) (any, error) {
	if v == domain.ServerTimestamp {
		return domain.FormatTimestamp(now), nil
	}
	if t, ok := v.(time.Time); ok {
		return domain.FormatTimestamp(t), nil
	}
	return Normalize(v)
}

func union(current []any, add []any) ([]any, error) {
	out := append([]any{}, current...)
	for _, v := range add {
		nv, err := Normalize(v)
		if err != nil {
			return nil, err
		}
		if !containsValue(out, nv) {
			out = append(out, nv)
		}
	}
	return out, nil
}

func remove(current []any, drop []any) ([]any, error) {
	normalized := make([]any, 0, len(drop))
	for _, v := range drop {
		nv, err := Normalize(v)
		if err != nil {
			return nil, err
		}
		normalized = append(normalized, nv)
	}
	out := make([]any, 0, len(current))
	for _, v := range current {
		if !containsValue(normalized, v) {
			out = append(out, v)
		}
	}
	return out, nil
}

func containsValue(list []any, v any) bool {
	for _, item := range list {
		if reflect.DeepEqual(item, v) {
			return true
		}
	}
	return false
}
