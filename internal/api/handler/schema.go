package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ITensEI/HCGateway/internal/core/domain"
	"github.com/ITensEI/HCGateway/internal/core/ports"
)

// --- Request / Response types ---

type loginRequest struct {
	Username string `json:"username" validate:"required,max=256"`
	Password string `json:"password" validate:"required"`
	FCMToken string `json:"fcmToken,omitempty"`
}

type refreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

type sessionResponse struct {
	Token   string    `json:"token"`
	Refresh string    `json:"refresh"`
	Expiry  time.Time `json:"expiry"`
}

func toSessionResponse(r *ports.SessionResult) sessionResponse {
	return sessionResponse{Token: r.Token, Refresh: r.Refresh, Expiry: r.Expiry.UTC()}
}

// recordsRequest carries one record object or a list of records.
type recordsRequest struct {
	Data json.RawMessage `json:"data" swaggertype:"array,object"`
}

// idsRequest carries one record ID or a list of IDs.
type idsRequest struct {
	UUID json.RawMessage `json:"uuid" swaggertype:"array,string"`
}

// fetchRequest carries an optional filter over id, app, start and end.
type fetchRequest struct {
	Queries json.RawMessage `json:"queries,omitempty" swaggertype:"object"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// errorResponse documents the error envelope rendered by the API error handler.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// --- Decoding helpers ---

// decodeJSON keeps numbers as json.Number so integers beyond 2^53 reach the
// store digit for digit.
func decodeJSON(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

func isAbsent(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// decodeRecords accepts a single record object or a list of record objects.
func decodeRecords(raw json.RawMessage) ([]map[string]any, error) {
	if isAbsent(raw) {
		return nil, fmt.Errorf("%w: no data provided", domain.ErrInvalidRequest)
	}
	raw = bytes.TrimSpace(raw)

	switch raw[0] {
	case '{':
		var one map[string]any
		if err := decodeJSON(raw, &one); err != nil {
			return nil, fmt.Errorf("%w: data: %v", domain.ErrInvalidRequest, err)
		}
		return []map[string]any{one}, nil
	case '[':
		var many []map[string]any
		if err := decodeJSON(raw, &many); err != nil {
			return nil, fmt.Errorf("%w: data must be a record or a list of records", domain.ErrInvalidRequest)
		}
		for i, rec := range many {
			if rec == nil {
				return nil, fmt.Errorf("%w: data[%d] is not a record", domain.ErrInvalidRequest, i)
			}
		}
		return many, nil
	default:
		return nil, fmt.Errorf("%w: data must be a record or a list of records", domain.ErrInvalidRequest)
	}
}

// decodeIDs accepts a single ID string or a list of ID strings.
func decodeIDs(raw json.RawMessage) ([]string, error) {
	if isAbsent(raw) {
		return nil, fmt.Errorf("%w: no uuid provided", domain.ErrInvalidRequest)
	}

	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return []string{one}, nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, fmt.Errorf("%w: uuid must be a string or a list of strings", domain.ErrInvalidRequest)
	}
	return many, nil
}

// decodeFilter accepts an absent filter, an empty list (legacy clients send
// []) or a filter object.
func decodeFilter(raw json.RawMessage) (domain.Filter, error) {
	if isAbsent(raw) {
		return nil, nil
	}
	raw = bytes.TrimSpace(raw)

	switch raw[0] {
	case '{':
		var f domain.Filter
		if err := decodeJSON(raw, &f); err != nil {
			return nil, fmt.Errorf("%w: queries: %v", domain.ErrInvalidRequest, err)
		}
		return f, nil
	case '[':
		var list []any
		if err := json.Unmarshal(raw, &list); err == nil && len(list) == 0 {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("%w: queries must be an object", domain.ErrInvalidRequest)
}
