package ports

import "context"

// Messenger sends a data-only message to one device. There is no delivery
// confirmation.
type Messenger interface {
	Send(ctx context.Context, deviceToken string, data map[string]string) error
}

// NotificationService asks the user's device to apply changes locally.
type NotificationService interface {
	Push(ctx context.Context, userID, recordType string, records []map[string]any) error
	RequestDelete(ctx context.Context, userID, recordType string, ids []string) error
}
