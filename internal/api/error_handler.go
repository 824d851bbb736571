package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ITensEI/HCGateway/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// statusFor maps domain errors to HTTP status codes. Order matters: the
// first match wins.
var statusFor = []struct {
	err    error
	status int
}{
	{domain.ErrMissingToken, http.StatusBadRequest},
	{domain.ErrInvalidRequest, http.StatusBadRequest},
	{domain.ErrInvalidTimeRange, http.StatusBadRequest},
	{domain.ErrInvalidCredentials, http.StatusForbidden},
	{domain.ErrInvalidToken, http.StatusForbidden},
	{domain.ErrTokenExpired, http.StatusForbidden},
	{domain.ErrInvalidRefreshToken, http.StatusForbidden},
	{domain.ErrNoDeviceToken, http.StatusNotFound},
	{domain.ErrTooManyAttempts, http.StatusTooManyRequests},
	{domain.ErrDecryptionFailed, http.StatusInternalServerError},
	{domain.ErrDeliveryFailed, http.StatusInternalServerError},
	{domain.ErrDependencyUnavailable, http.StatusServiceUnavailable},
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status and stable error code.
//   - Logs server-side failures without leaking their cause to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>", "code": "<code>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, resp := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code := "internal"
		switch {
		case he.Code == http.StatusBadRequest:
			code = domain.Code(domain.ErrInvalidRequest)
		case he.Code < http.StatusInternalServerError:
			code = strings.ToLower(strings.ReplaceAll(http.StatusText(he.Code), " ", "_"))
		}
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message), Code: code}
	}

	for _, m := range statusFor {
		if !errors.Is(err, m.err) {
			continue
		}
		if m.status >= http.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Msg("request failed")
			return m.status, errorResponse{Error: m.err.Error(), Code: domain.Code(m.err)}
		}
		return m.status, errorResponse{Error: err.Error(), Code: domain.Code(m.err)}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: "internal"}
}
