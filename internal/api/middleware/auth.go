package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ITensEI/HCGateway/internal/api/metrics"
	"github.com/ITensEI/HCGateway/internal/core/domain"
	"github.com/ITensEI/HCGateway/internal/core/ports"
)

// UserIDKey is the echo context key holding the authenticated user ID.
const UserIDKey = "user_id"

type ctxKey struct{}

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserIDFromContext returns the user ID stored by WithUserID.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

// BearerToken extracts the token from the Authorization header. A missing
// header is ErrMissingToken; any other scheme is ErrInvalidToken.
func BearerToken(c echo.Context) (string, error) {
	header := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
	if header == "" {
		return "", domain.ErrMissingToken
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", fmt.Errorf("%w: malformed authorization header", domain.ErrInvalidToken)
	}
	return parts[1], nil
}

// Auth resolves the bearer token to a user and injects the user ID into both
// the echo context and the request context.
func Auth(sessions ports.SessionService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := BearerToken(c)
			if err != nil {
				metrics.AuthEventsTotal.WithLabelValues("authenticate", domain.Code(err)).Inc()
				return err
			}

			req := c.Request()
			userID, err := sessions.Authenticate(req.Context(), token)
			if err != nil {
				metrics.AuthEventsTotal.WithLabelValues("authenticate", domain.Code(err)).Inc()
				return err
			}

			c.Set(UserIDKey, userID)
			c.SetRequest(req.WithContext(WithUserID(req.Context(), userID)))

			return next(c)
		}
	}
}
