package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ITensEI/HCGateway/internal/core/domain"
	"github.com/ITensEI/HCGateway/internal/core/ports"
)

type notificationService struct {
	users     ports.UserRepository
	messenger ports.Messenger
	log       zerolog.Logger
}

// NewNotificationService returns a NotificationService implementation.
func NewNotificationService(users ports.UserRepository, messenger ports.Messenger, log zerolog.Logger) ports.NotificationService {
	return &notificationService{users: users, messenger: messenger, log: log}
}

// Push asks the device to write records into its local health store. Nothing
// is sent unless every record carries a valid time range and the user has a
// registered device.
func (s *notificationService) Push(ctx context.Context, userID, recordType string, records []map[string]any) error {
	if recordType == "" {
		return fmt.Errorf("%w: record type is required", domain.ErrInvalidRequest)
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: no data provided", domain.ErrInvalidRequest)
	}

	deviceType := domain.DeviceRecordType(recordType)
	batch := make([]map[string]any, 0, len(records))
	for i, rec := range records {
		if _, err := domain.ParseTimeRange(rec); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		out := make(map[string]any, len(rec)+1)
		for k, v := range rec {
			out[k] = v
		}
		out[domain.FieldRecordType] = deviceType
		batch = append(batch, out)
	}

	token, err := s.deviceToken(ctx, userID)
	if err != nil {
		return err
	}

	data, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("%w: encode records: %v", domain.ErrInvalidRequest, err)
	}
	return s.send(ctx, userID, token, domain.DeviceOpPush, data)
}

// RequestDelete asks the device to delete the listed record IDs from its
// local health store.
func (s *notificationService) RequestDelete(ctx context.Context, userID, recordType string, ids []string) error {
	if recordType == "" {
		return fmt.Errorf("%w: record type is required", domain.ErrInvalidRequest)
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: no uuids provided", domain.ErrInvalidRequest)
	}
	for _, id := range ids {
		if id == "" {
			return fmt.Errorf("%w: empty record id", domain.ErrInvalidRequest)
		}
	}

	token, err := s.deviceToken(ctx, userID)
	if err != nil {
		return err
	}

	data, err := json.Marshal(struct {
		UUIDs      []string `json:"uuids"`
		RecordType string   `json:"recordType"`
	}{UUIDs: ids, RecordType: domain.DeviceRecordType(recordType)})
	if err != nil {
		return fmt.Errorf("encode delete request: %w", err)
	}
	return s.send(ctx, userID, token, domain.DeviceOpDelete, data)
}

func (s *notificationService) deviceToken(ctx context.Context, userID string) (string, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return "", domain.ErrInvalidToken
	}
	if err != nil {
		return "", fmt.Errorf("%w: load user: %w", domain.ErrDependencyUnavailable, err)
	}
	if user.DeviceToken == "" {
		return "", domain.ErrNoDeviceToken
	}
	return user.DeviceToken, nil
}

func (s *notificationService) send(ctx context.Context, userID, token, op string, data []byte) error {
	err := s.messenger.Send(ctx, token, map[string]string{
		"op":   op,
		"data": string(data),
	})
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Str("op", op).Msg("device message not delivered")
		return fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, err)
	}
	s.log.Info().Str("user_id", userID).Str("op", op).Msg("device message sent")
	return nil
}
