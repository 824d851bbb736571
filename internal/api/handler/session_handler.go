package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ITensEI/HCGateway/internal/api/metrics"
	"github.com/ITensEI/HCGateway/internal/api/middleware"
	"github.com/ITensEI/HCGateway/internal/core/domain"
	"github.com/ITensEI/HCGateway/internal/core/ports"
)

// SessionHandler handles login, token refresh and revocation.
type SessionHandler struct {
	sessions ports.SessionService
}

func NewSessionHandler(sessions ports.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Login registers a new user on first use, otherwise authenticates one.
//
// @Summary      Log in or register
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials and optional device messaging token"
// @Success      201   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /login [post]
func (h *SessionHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.sessions.Login(c.Request().Context(), ports.LoginInput{
		Username:    req.Username,
		Password:    req.Password,
		DeviceToken: req.FCMToken,
	})
	if err != nil {
		metrics.AuthEventsTotal.WithLabelValues("login", domain.Code(err)).Inc()
		return err
	}

	event := "login"
	if res.Created {
		event = "register"
	}
	metrics.AuthEventsTotal.WithLabelValues(event, "ok").Inc()

	return c.JSON(http.StatusCreated, toSessionResponse(res))
}

// Refresh exchanges a refresh token for a new bearer token.
//
// @Summary      Refresh a session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  true  "Refresh token"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /refresh [post]
func (h *SessionHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.sessions.Refresh(c.Request().Context(), req.Refresh)
	if err != nil {
		metrics.AuthEventsTotal.WithLabelValues("refresh", domain.Code(err)).Inc()
		return err
	}
	metrics.AuthEventsTotal.WithLabelValues("refresh", "ok").Inc()

	return c.JSON(http.StatusOK, toSessionResponse(res))
}

// Revoke clears the session of the presented bearer token.
//
// @Summary      Revoke a session
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      400  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /revoke [delete]
func (h *SessionHandler) Revoke(c echo.Context) error {
	token, err := middleware.BearerToken(c)
	if err == nil {
		err = h.sessions.Revoke(c.Request().Context(), token)
	}
	if err != nil {
		metrics.AuthEventsTotal.WithLabelValues("revoke", domain.Code(err)).Inc()
		return err
	}
	metrics.AuthEventsTotal.WithLabelValues("revoke", "ok").Inc()

	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: "token revoked"})
}
