package domain

import "errors"

// Errors surfaced to API callers. Each maps to a stable discriminator via Code.
var (
	ErrInvalidRequest        = errors.New("invalid request")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrInvalidToken          = errors.New("invalid token")
	ErrMissingToken          = errors.New("no token provided")
	ErrTokenExpired          = errors.New("token expired")
	ErrInvalidRefreshToken   = errors.New("invalid refresh token")
	ErrNoDeviceToken         = errors.New("no device token registered")
	ErrInvalidTimeRange      = errors.New("invalid time range")
	ErrDecryptionFailed      = errors.New("decryption failed")
	ErrDeliveryFailed        = errors.New("message delivery failed")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrTooManyAttempts       = errors.New("too many login attempts")
)

// Errors exchanged between repositories and services only.
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUserExists    = errors.New("user already exists")
	ErrRecordExists  = errors.New("record already exists")
	ErrMessagingDown = errors.New("messaging disabled")
)

var codes = []struct {
	err  error
	code string
}{
	{ErrInvalidRequest, "invalid_request"},
	{ErrInvalidCredentials, "invalid_credentials"},
	{ErrInvalidToken, "invalid_token"},
	{ErrMissingToken, "missing_token"},
	{ErrTokenExpired, "token_expired"},
	{ErrInvalidRefreshToken, "invalid_refresh_token"},
	{ErrNoDeviceToken, "no_device_token"},
	{ErrInvalidTimeRange, "invalid_time_range"},
	{ErrDecryptionFailed, "decryption_failed"},
	{ErrDeliveryFailed, "delivery_failed"},
	{ErrDependencyUnavailable, "dependency_unavailable"},
	{ErrTooManyAttempts, "too_many_attempts"},
}

// Code returns the machine-readable discriminator for err, or "internal"
// when err does not wrap any known domain error.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "internal"
}
