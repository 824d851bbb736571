package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepsRecord() map[string]any {
	return map[string]any{
		"metadata": map[string]any{
			"id":               "a1",
			"dataOrigin":       "com.google.android.apps.fitness",
			"lastModifiedTime": "2024-01-01T00:05",
		},
		"time":  "2024-01-01T00:00",
		"count": float64(10),
	}
}

func TestParseRecord_SplitsReservedFields(t *testing.T) {
	rec, err := ParseRecord(stepsRecord())
	require.NoError(t, err)

	assert.Equal(t, "a1", rec.ID)
	assert.Equal(t, "com.google.android.apps.fitness", rec.Origin)
	assert.Equal(t, TimeRange{Time: "2024-01-01T00:00"}, rec.Range)
	assert.Equal(t, float64(10), rec.Payload["count"])
	assert.NotContains(t, rec.Payload, "time")
	assert.Equal(t, map[string]any{"lastModifiedTime": "2024-01-01T00:05"}, rec.Payload["metadata"])
}

func TestParseRecord_FieldsRoundTrip(t *testing.T) {
	in := stepsRecord()
	rec, err := ParseRecord(in)
	require.NoError(t, err)
	assert.Equal(t, in, rec.Fields())

	interval := map[string]any{
		"metadata":  map[string]any{"id": "s1", "dataOrigin": "app"},
		"startTime": "2024-01-01T22:00",
		"endTime":   "2024-01-02T06:00",
		"stages":    []any{map[string]any{"stage": float64(4)}},
	}
	rec, err = ParseRecord(interval)
	require.NoError(t, err)
	assert.Equal(t, interval, rec.Fields())
}

func TestParseRecord_MissingIdentity(t *testing.T) {
	_, err := ParseRecord(map[string]any{"time": "2024-01-01T00:00"})
	assert.True(t, errors.Is(err, ErrInvalidRequest))

	_, err = ParseRecord(map[string]any{
		"metadata": map[string]any{"dataOrigin": "app"},
		"time":     "2024-01-01T00:00",
	})
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestParseTimeRange(t *testing.T) {
	cases := []struct {
		name    string
		fields  map[string]any
		want    TimeRange
		wantErr bool
	}{
		{"instant", map[string]any{"time": "t0"}, TimeRange{Time: "t0"}, false},
		{"pair", map[string]any{"startTime": "t0", "endTime": "t1"}, TimeRange{Start: "t0", End: "t1"}, false},
		{"neither", map[string]any{}, TimeRange{}, true},
		{"start only", map[string]any{"startTime": "t0"}, TimeRange{}, true},
		{"end only", map[string]any{"endTime": "t1"}, TimeRange{}, true},
		{"both", map[string]any{"time": "t0", "startTime": "t0", "endTime": "t1"}, TimeRange{}, true},
		{"not a string", map[string]any{"time": float64(12)}, TimeRange{}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseTimeRange(tc.fields)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTimeRange)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTimeRange_BoundsRoundTrip(t *testing.T) {
	for _, tr := range []TimeRange{{Time: "t0"}, {Start: "t0", End: "t1"}} {
		assert.Equal(t, tr, TimeRangeFromBounds(tr.Bounds()))
	}
}

func TestPartition_Normalization(t *testing.T) {
	assert.Equal(t, "steps", Partition{RecordType: "Steps"}.Collection())
	assert.Equal(t, "heartRate", Partition{RecordType: "HeartRate"}.Collection())
	assert.Equal(t, "heartRate", Partition{RecordType: "heartRate"}.Collection())
	assert.Equal(t, "", Partition{}.Collection())

	assert.Equal(t, "Steps", DeviceRecordType("steps"))
	assert.Equal(t, "HeartRate", DeviceRecordType("heartRate"))
}

func TestBatchSpan(t *testing.T) {
	records := []*Record{
		{Range: TimeRange{Time: "2024-01-02T00:00"}},
		{Range: TimeRange{Start: "2024-01-01T22:00", End: "2024-01-03T06:00"}},
	}
	from, to := BatchSpan(records)
	assert.Equal(t, "2024-01-01T22:00", from)
	assert.Equal(t, "2024-01-03T06:00", to)
}

func TestCode(t *testing.T) {
	assert.Equal(t, "token_expired", Code(ErrTokenExpired))
	assert.Equal(t, "no_device_token", Code(errors.Join(errors.New("ctx"), ErrNoDeviceToken)))
	assert.Equal(t, "internal", Code(errors.New("boom")))
}
