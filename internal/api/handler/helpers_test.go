package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/ITensEI/HCGateway/internal/api/middleware"
	"github.com/ITensEI/HCGateway/internal/core/domain"
	"github.com/ITensEI/HCGateway/internal/core/ports"
)

// newContext builds an echo context for a JSON request. A non-empty userID
// simulates the Auth middleware; method fills the :method path parameter.
func newContext(httpMethod, path, body, userID, method string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	req := httptest.NewRequest(httpMethod, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if userID != "" {
		c.Set(middleware.UserIDKey, userID)
	}
	if method != "" {
		c.SetParamNames("method")
		c.SetParamValues(method)
	}
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
}

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubSessionService struct {
	loginFn   func(ctx context.Context, in ports.LoginInput) (*ports.SessionResult, error)
	refreshFn func(ctx context.Context, refresh string) (*ports.SessionResult, error)
	revokeFn  func(ctx context.Context, token string) error
}

func (s *stubSessionService) Login(ctx context.Context, in ports.LoginInput) (*ports.SessionResult, error) {
	return s.loginFn(ctx, in)
}

func (s *stubSessionService) Refresh(ctx context.Context, refresh string) (*ports.SessionResult, error) {
	return s.refreshFn(ctx, refresh)
}

func (s *stubSessionService) Revoke(ctx context.Context, token string) error {
	return s.revokeFn(ctx, token)
}

func (s *stubSessionService) Authenticate(context.Context, string) (string, error) {
	return "", domain.ErrInvalidToken
}

type stubSyncService struct {
	upsertFn func(ctx context.Context, p domain.Partition, records []map[string]any) error
	fetchFn  func(ctx context.Context, p domain.Partition, filter domain.Filter) ([]map[string]any, error)
	deleteFn func(ctx context.Context, p domain.Partition, ids []string) error
}

func (s *stubSyncService) Upsert(ctx context.Context, p domain.Partition, records []map[string]any) error {
	return s.upsertFn(ctx, p, records)
}

func (s *stubSyncService) Fetch(ctx context.Context, p domain.Partition, filter domain.Filter) ([]map[string]any, error) {
	return s.fetchFn(ctx, p, filter)
}

func (s *stubSyncService) Delete(ctx context.Context, p domain.Partition, ids []string) error {
	return s.deleteFn(ctx, p, ids)
}

type stubNotificationService struct {
	pushFn          func(ctx context.Context, userID, recordType string, records []map[string]any) error
	requestDeleteFn func(ctx context.Context, userID, recordType string, ids []string) error
}

func (s *stubNotificationService) Push(ctx context.Context, userID, recordType string, records []map[string]any) error {
	return s.pushFn(ctx, userID, recordType, records)
}

func (s *stubNotificationService) RequestDelete(ctx context.Context, userID, recordType string, ids []string) error {
	return s.requestDeleteFn(ctx, userID, recordType, ids)
}
