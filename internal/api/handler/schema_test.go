package handler

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ITensEI/HCGateway/internal/core/domain"
)

func TestDecodeRecords(t *testing.T) {
	cases := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{`{"a":1}`, 1, false},
		{`[{"a":1},{"b":2}]`, 2, false},
		{`[]`, 0, false},
		{``, 0, true},
		{`null`, 0, true},
		{`"x"`, 0, true},
		{`[1,2]`, 0, true},
		{`[null]`, 0, true},
	}
	for _, tc := range cases {
		got, err := decodeRecords(json.RawMessage(tc.raw))
		if tc.wantErr {
			if !errors.Is(err, domain.ErrInvalidRequest) {
				t.Fatalf("%q: expected ErrInvalidRequest, got %v", tc.raw, err)
			}
			continue
		}
		if err != nil || len(got) != tc.want {
			t.Fatalf("%q: expected %d records, got %d (err %v)", tc.raw, tc.want, len(got), err)
		}
	}
}

func TestDecodeIDs(t *testing.T) {
	if ids, err := decodeIDs(json.RawMessage(`"a"`)); err != nil || len(ids) != 1 {
		t.Fatalf("single id: %v %v", ids, err)
	}
	if ids, err := decodeIDs(json.RawMessage(`["a","b"]`)); err != nil || len(ids) != 2 {
		t.Fatalf("id list: %v %v", ids, err)
	}
	for _, raw := range []string{``, `null`, `1`, `[1]`, `{}`} {
		if _, err := decodeIDs(json.RawMessage(raw)); !errors.Is(err, domain.ErrInvalidRequest) {
			t.Fatalf("%q: expected ErrInvalidRequest, got %v", raw, err)
		}
	}
}

func TestDecodeFilter(t *testing.T) {
	for _, raw := range []string{``, `null`, `[]`} {
		f, err := decodeFilter(json.RawMessage(raw))
		if err != nil || f != nil {
			t.Fatalf("%q: expected no filter, got %v %v", raw, f, err)
		}
	}

	f, err := decodeFilter(json.RawMessage(`{"start":{"$gte":"2024-01-01"}}`))
	if err != nil || f["start"] == nil {
		t.Fatalf("expected filter, got %v %v", f, err)
	}

	for _, raw := range []string{`[1]`, `"x"`, `5`} {
		if _, err := decodeFilter(json.RawMessage(raw)); !errors.Is(err, domain.ErrInvalidRequest) {
			t.Fatalf("%q: expected ErrInvalidRequest, got %v", raw, err)
		}
	}
}

func TestDecodeRecords_KeepsLargeIntegers(t *testing.T) {
	got, err := decodeRecords(json.RawMessage(`[{"energyNanos":1704067200000000001,"ratio":0.5}]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := got[0]["energyNanos"]; n != json.Number("1704067200000000001") {
		t.Fatalf("integer changed: %#v", n)
	}

	out, err := json.Marshal(got[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"energyNanos":1704067200000000001,"ratio":0.5}` {
		t.Fatalf("unexpected re-encoding: %s", out)
	}
}

func TestDecodeFilter_NumbersAreScalars(t *testing.T) {
	f, err := decodeFilter(json.RawMessage(`{"start":{"$in":["a",1]}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.Normalize(); err != nil {
		t.Fatalf("json.Number must be accepted as a scalar: %v", err)
	}
}
