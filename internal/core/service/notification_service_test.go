package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ITensEI/HCGateway/internal/core/domain"
)

func newNotificationFixture(deviceToken string) (*notificationService, *stubMessenger) {
	users := newStubUserRepo()
	users.add(&domain.User{ID: "u1", Username: "alice", DeviceToken: deviceToken})
	messenger := &stubMessenger{}
	svc := NewNotificationService(users, messenger, zerolog.Nop()).(*notificationService)
	return svc, messenger
}

func TestNotificationService_Push(t *testing.T) {
	svc, messenger := newNotificationFixture("dev-1")

	records := []map[string]any{
		{"startTime": "2024-01-01T00:00:00Z", "endTime": "2024-01-01T01:00:00Z", "count": float64(10)},
		{"time": "2024-01-01T02:00:00Z", "count": float64(5)},
	}
	require.NoError(t, svc.Push(context.Background(), "u1", "steps", records))

	require.Len(t, messenger.sent, 1)
	msg := messenger.sent[0]
	assert.Equal(t, "dev-1", msg.token)
	assert.Equal(t, domain.DeviceOpPush, msg.data["op"])

	var got []map[string]any
	require.NoError(t, json.Unmarshal([]byte(msg.data["data"]), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "Steps", got[0]["recordType"])
	assert.Equal(t, "Steps", got[1]["recordType"])
	assert.Equal(t, float64(10), got[0]["count"])

	// Caller's records are not mutated.
	assert.NotContains(t, records[0], "recordType")
}

func TestNotificationService_Push_InvalidTimeRange(t *testing.T) {
	svc, messenger := newNotificationFixture("dev-1")

	cases := []map[string]any{
		{"count": float64(1)},
		{"startTime": "2024-01-01T00:00:00Z"},
		{"time": "2024-01-01T00:00:00Z", "endTime": "2024-01-01T01:00:00Z"},
	}
	for _, rec := range cases {
		err := svc.Push(context.Background(), "u1", "Steps", []map[string]any{rec})
		assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)
	}
	assert.Empty(t, messenger.sent)
}

func TestNotificationService_Push_ValidatesBeforeDeviceLookup(t *testing.T) {
	svc, messenger := newNotificationFixture("")

	err := svc.Push(context.Background(), "u1", "Steps", []map[string]any{{"count": float64(1)}})
	assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)

	err = svc.Push(context.Background(), "u1", "Steps", []map[string]any{{"time": "2024-01-01T00:00:00Z"}})
	assert.ErrorIs(t, err, domain.ErrNoDeviceToken)
	assert.Empty(t, messenger.sent)
}

func TestNotificationService_Push_EmptyInput(t *testing.T) {
	svc, _ := newNotificationFixture("dev-1")

	assert.ErrorIs(t, svc.Push(context.Background(), "u1", "Steps", nil), domain.ErrInvalidRequest)
	assert.ErrorIs(t, svc.Push(context.Background(), "u1", "", []map[string]any{{"time": "t"}}), domain.ErrInvalidRequest)
}

func TestNotificationService_Push_DeliveryFailed(t *testing.T) {
	svc, messenger := newNotificationFixture("dev-1")
	messenger.sendErr = errors.New("unregistered")

	err := svc.Push(context.Background(), "u1", "Steps", []map[string]any{{"time": "2024-01-01T00:00:00Z"}})
	assert.ErrorIs(t, err, domain.ErrDeliveryFailed)
}

func TestNotificationService_RequestDelete(t *testing.T) {
	svc, messenger := newNotificationFixture("dev-1")

	require.NoError(t, svc.RequestDelete(context.Background(), "u1", "heartRate", []string{"a", "b"}))

	require.Len(t, messenger.sent, 1)
	msg := messenger.sent[0]
	assert.Equal(t, domain.DeviceOpDelete, msg.data["op"])
	assert.JSONEq(t, `{"uuids":["a","b"],"recordType":"HeartRate"}`, msg.data["data"])
}

func TestNotificationService_RequestDelete_Errors(t *testing.T) {
	svc, messenger := newNotificationFixture("")
	ctx := context.Background()

	assert.ErrorIs(t, svc.RequestDelete(ctx, "u1", "Steps", []string{"a"}), domain.ErrNoDeviceToken)
	assert.ErrorIs(t, svc.RequestDelete(ctx, "u1", "Steps", nil), domain.ErrInvalidRequest)
	assert.ErrorIs(t, svc.RequestDelete(ctx, "u1", "Steps", []string{""}), domain.ErrInvalidRequest)
	assert.ErrorIs(t, svc.RequestDelete(ctx, "ghost", "Steps", []string{"a"}), domain.ErrInvalidToken)
	assert.Empty(t, messenger.sent)
}
