package messaging

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/ITensEI/HCGateway/internal/core/domain"
	"github.com/ITensEI/HCGateway/internal/core/ports"
)

// Config selects the Firebase project used for device messages. An empty
// CredentialsFile falls back to application default credentials.
type Config struct {
	ProjectID       string
	CredentialsFile string
}

// FirebaseMessenger delivers data-only messages through Firebase Cloud
// Messaging.
type FirebaseMessenger struct {
	client *messaging.Client
}

var _ ports.Messenger = (*FirebaseMessenger)(nil)

// NewFirebaseMessenger creates a messenger for cfg.ProjectID.
func NewFirebaseMessenger(ctx context.Context, cfg Config) (*FirebaseMessenger, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	return &FirebaseMessenger{client: client}, nil
}

// Send delivers data to one device. Success only means Firebase accepted the
// message.
func (m *FirebaseMessenger) Send(ctx context.Context, deviceToken string, data map[string]string) error {
	if _, err := m.client.Send(ctx, newMessage(deviceToken, data)); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// newMessage builds a high-priority data-only message so the app is woken to
// handle it even when backgrounded.
func newMessage(deviceToken string, data map[string]string) *messaging.Message {
	return &messaging.Message{
		Token: deviceToken,
		Data:  data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	}
}

// Disabled is the Messenger used when no Firebase project is configured.
type Disabled struct{}

var _ ports.Messenger = Disabled{}

func (Disabled) Send(context.Context, string, map[string]string) error {
	return domain.ErrMessagingDown
}
