package ports

import (
	"context"
	"time"
)

// LoginInput is the DTO passed from the transport layer to SessionService.
type LoginInput struct {
	Username    string
	Password    string
	DeviceToken string // optional
}

// SessionResult is the token triple handed back to the client.
type SessionResult struct {
	Token   string
	Refresh string
	Expiry  time.Time
	// Created is true when the login registered a new user.
	Created bool
}

// SessionService issues, validates, refreshes and revokes bearer tokens.
type SessionService interface {
	Login(ctx context.Context, in LoginInput) (*SessionResult, error)
	Refresh(ctx context.Context, refresh string) (*SessionResult, error)
	Revoke(ctx context.Context, token string) error
	// Authenticate returns the ID of the user owning token.
	Authenticate(ctx context.Context, token string) (string, error)
}

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(encoded, password string) (bool, error)
}

// LoginLimiter throttles repeated failed logins per username.
type LoginLimiter interface {
	Blocked(ctx context.Context, username string) (bool, error)
	Fail(ctx context.Context, username string) error
	Reset(ctx context.Context, username string) error
}
