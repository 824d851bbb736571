package domain

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Reserved record fields. They are kept in clear text so the store can
// index and range-query them; everything else is encrypted payload.
const (
	FieldMetadata   = "metadata"
	FieldID         = "id"
	FieldDataOrigin = "dataOrigin"
	FieldTime       = "time"
	FieldStartTime  = "startTime"
	FieldEndTime    = "endTime"
	FieldRecordType = "recordType"
)

// TimeRange is either a single instant (Time) or a Start/End pair.
type TimeRange struct {
	Time  string
	Start string
	End   string
}

// IsInstant reports whether the range is a single instant.
func (r TimeRange) IsInstant() bool { return r.Time != "" }

// Bounds returns the stored (start, end) pair; end is empty for instants.
func (r TimeRange) Bounds() (start, end string) {
	if r.IsInstant() {
		return r.Time, ""
	}
	return r.Start, r.End
}

// TimeRangeFromBounds is the inverse of Bounds.
func TimeRangeFromBounds(start, end string) TimeRange {
	if end == "" {
		return TimeRange{Time: start}
	}
	return TimeRange{Start: start, End: end}
}

// ParseTimeRange reads time/startTime/endTime from a raw record. Exactly one
// of an instant or a complete start/end pair must be present.
func ParseTimeRange(fields map[string]any) (TimeRange, error) {
	t, hasTime, err := stringField(fields, FieldTime)
	if err != nil {
		return TimeRange{}, err
	}
	start, hasStart, err := stringField(fields, FieldStartTime)
	if err != nil {
		return TimeRange{}, err
	}
	end, hasEnd, err := stringField(fields, FieldEndTime)
	if err != nil {
		return TimeRange{}, err
	}

	switch {
	case hasTime && (hasStart || hasEnd):
		return TimeRange{}, fmt.Errorf("%w: use either time or startTime/endTime, not both", ErrInvalidTimeRange)
	case hasTime:
		return TimeRange{Time: t}, nil
	case hasStart != hasEnd:
		return TimeRange{}, fmt.Errorf("%w: start time and end time must be provided together", ErrInvalidTimeRange)
	case hasStart && hasEnd:
		return TimeRange{Start: start, End: end}, nil
	default:
		return TimeRange{}, fmt.Errorf("%w: no start time or end time provided; use time for a single instant", ErrInvalidTimeRange)
	}
}

func stringField(fields map[string]any, key string) (string, bool, error) {
	v, ok := fields[key]
	if !ok || v == nil {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, fmt.Errorf("%w: %s must be a string", ErrInvalidTimeRange, key)
	}
	if s == "" {
		return "", false, nil
	}
	return s, true, nil
}

// Record is a health-metric record split into clear indexing fields and an
// opaque payload.
type Record struct {
	ID      string
	Origin  string
	Range   TimeRange
	Payload map[string]any
}

// ParseRecord splits a client record into reserved fields and payload.
// Metadata keys other than id and dataOrigin stay in the payload under
// "metadata" so that Fields restores the record exactly.
func ParseRecord(fields map[string]any) (*Record, error) {
	meta, ok := fields[FieldMetadata].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: record metadata missing", ErrInvalidRequest)
	}
	id, _ := meta[FieldID].(string)
	if id == "" {
		return nil, fmt.Errorf("%w: metadata.id missing", ErrInvalidRequest)
	}
	origin, _ := meta[FieldDataOrigin].(string)
	if origin == "" {
		return nil, fmt.Errorf("%w: metadata.dataOrigin missing for record %s", ErrInvalidRequest, id)
	}

	tr, err := ParseTimeRange(fields)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", id, err)
	}

	payload := make(map[string]any, len(fields))
	for k, v := range fields {
		switch k {
		case FieldMetadata, FieldTime, FieldStartTime, FieldEndTime:
			continue
		}
		payload[k] = v
	}

	extra := make(map[string]any)
	for k, v := range meta {
		if k != FieldID && k != FieldDataOrigin {
			extra[k] = v
		}
	}
	if len(extra) > 0 {
		payload[FieldMetadata] = extra
	}

	return &Record{ID: id, Origin: origin, Range: tr, Payload: payload}, nil
}

// Fields merges the reserved fields back into the payload, producing the
// record in the shape the client sent it.
func (r *Record) Fields() map[string]any {
	out := make(map[string]any, len(r.Payload)+3)
	for k, v := range r.Payload {
		if k == FieldMetadata {
			continue
		}
		out[k] = v
	}

	meta := make(map[string]any)
	if extra, ok := r.Payload[FieldMetadata].(map[string]any); ok {
		for k, v := range extra {
			meta[k] = v
		}
	}
	meta[FieldID] = r.ID
	meta[FieldDataOrigin] = r.Origin
	out[FieldMetadata] = meta

	if r.Range.IsInstant() {
		out[FieldTime] = r.Range.Time
	} else {
		out[FieldStartTime] = r.Range.Start
		out[FieldEndTime] = r.Range.End
	}
	return out
}

// StoredRecord is the persisted form of a Record.
type StoredRecord struct {
	ID    string
	Data  string // encrypted payload
	App   string
	Start string
	End   string // empty for instants
}

// Partition addresses the records of one user and one record type.
type Partition struct {
	UserID     string
	RecordType string
}

// Collection is the storage name of the partition's record type: the type
// name with its first character lower-cased.
func (p Partition) Collection() string {
	return mapFirstRune(p.RecordType, unicode.ToLower)
}

// DeviceRecordType is the record-type name the device expects: first
// character upper-cased.
func DeviceRecordType(recordType string) string {
	return mapFirstRune(recordType, unicode.ToUpper)
}

func mapFirstRune(s string, f func(rune) rune) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(f(r)) + s[size:]
}

// BatchSpan returns the earliest and latest time value across records.
func BatchSpan(records []*Record) (from, to string) {
	for _, r := range records {
		start, end := r.Range.Bounds()
		for _, t := range []string{start, end} {
			if t == "" {
				continue
			}
			if from == "" || t < from {
				from = t
			}
			if t > to {
				to = t
			}
		}
	}
	return from, to
}
