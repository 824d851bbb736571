package domain

import (
	"encoding/json"
	"fmt"
)

const maxFilterDepth = 8

// filterFields maps accepted filter keys to stored field names.
var filterFields = map[string]string{
	"_id":    "_id",
	"id":     "_id",
	"app":    "app",
	"origin": "app",
	"start":  "start",
	"time":   "start",
	"end":    "end",
}

var filterOps = map[string]bool{
	"$eq":  true,
	"$ne":  true,
	"$gt":  true,
	"$gte": true,
	"$lt":  true,
	"$lte": true,
	"$in":  true,
	"$nin": true,
}

// Filter is a client query over the clear indexing fields of a partition.
// The payload is encrypted, so only id, app, start and end can be queried.
type Filter map[string]any

// Normalize validates the filter and rewrites field aliases to their stored
// names. A nil or empty filter matches the whole partition.
func (f Filter) Normalize() (map[string]any, error) {
	if len(f) == 0 {
		return map[string]any{}, nil
	}
	return normalizeDoc(f, 0)
}

func normalizeDoc(doc map[string]any, depth int) (map[string]any, error) {
	if depth > maxFilterDepth {
		return nil, fmt.Errorf("%w: filter nested too deeply", ErrInvalidRequest)
	}

	out := make(map[string]any, len(doc))
	for k, v := range doc {
		if k == "$and" || k == "$or" {
			clauses, ok := v.([]any)
			if !ok || len(clauses) == 0 {
				return nil, fmt.Errorf("%w: %s expects a non-empty list", ErrInvalidRequest, k)
			}
			norm := make([]any, 0, len(clauses))
			for _, c := range clauses {
				sub, ok := c.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("%w: %s clauses must be objects", ErrInvalidRequest, k)
				}
				n, err := normalizeDoc(sub, depth+1)
				if err != nil {
					return nil, err
				}
				norm = append(norm, n)
			}
			out[k] = norm
			continue
		}

		field, ok := filterFields[k]
		if !ok {
			return nil, fmt.Errorf("%w: cannot filter on %q", ErrInvalidRequest, k)
		}
		cond, err := normalizeCondition(k, v)
		if err != nil {
			return nil, err
		}
		out[field] = cond
	}
	return out, nil
}

func normalizeCondition(field string, v any) (any, error) {
	ops, ok := v.(map[string]any)
	if !ok {
		if !isScalar(v) {
			return nil, fmt.Errorf("%w: invalid value for %q", ErrInvalidRequest, field)
		}
		return v, nil
	}

	out := make(map[string]any, len(ops))
	for op, arg := range ops {
		if !filterOps[op] {
			return nil, fmt.Errorf("%w: operator %q not allowed", ErrInvalidRequest, op)
		}
		if op == "$in" || op == "$nin" {
			list, ok := arg.([]any)
			if !ok {
				return nil, fmt.Errorf("%w: %s expects a list", ErrInvalidRequest, op)
			}
			for _, item := range list {
				if !isScalar(item) {
					return nil, fmt.Errorf("%w: %s items must be scalars", ErrInvalidRequest, op)
				}
			}
		} else if !isScalar(arg) {
			return nil, fmt.Errorf("%w: %s expects a scalar", ErrInvalidRequest, op)
		}
		out[op] = arg
	}
	return out, nil
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool, json.Number, float64, int, int64:
		return true
	}
	return false
}
