package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ITensEI/HCGateway/internal/api/middleware"
)

// ctxUserID extracts the user ID injected by the Auth middleware. Its
// absence means the route was registered without the middleware.
func ctxUserID(c echo.Context) (string, error) {
	userID, _ := c.Get(middleware.UserIDKey).(string)
	if userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication context")
	}
	return userID, nil
}
