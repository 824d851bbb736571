package ports

import (
	"context"

	"github.com/ITensEI/HCGateway/internal/core/domain"
)

// UserRepository is the Credential Store. Lookups return
// domain.ErrUserNotFound when nothing matches.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByToken(ctx context.Context, token string) (*domain.User, error)
	FindByRefresh(ctx context.Context, refresh string) (*domain.User, error)

	// Create assigns the user ID. Returns domain.ErrUserExists when the
	// username is taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)

	// SetSession overwrites the user's token triple; ClearSession unsets it.
	SetSession(ctx context.Context, userID string, session *domain.Session) error
	ClearSession(ctx context.Context, userID string) error

	SetDeviceToken(ctx context.Context, userID, deviceToken string) error
}
