package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tradepost/config"
	httpmiddleware "tradepost/internal/delivery/http/middleware"
	"tradepost/internal/delivery/http/response"
	"tradepost/internal/delivery/http/router"
	"tradepost/internal/delivery/http/router/handler"
	"tradepost/internal/domain/entity"
	domainerrors "tradepost/internal/domain/errors"
	"tradepost/internal/domain/service"
	"tradepost/internal/infra/auth"
	"tradepost/internal/infra/metrics"
	"tradepost/internal/testutil"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInbox struct {
	unread  int64
	markErr error
	marked  []uuid.UUID
}

func (f *fakeInbox) List(context.Context, uuid.UUID, bool, int, int) ([]*entity.Notification, error) {
	return []*entity.Notification{}, nil
}

func (f *fakeInbox) UnreadCount(context.Context, uuid.UUID) (int64, error) {
	return f.unread, nil
}

func (f *fakeInbox) MarkRead(_ context.Context, _ uuid.UUID, id uuid.UUID) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.marked = append(f.marked, id)

	return nil
}

func (f *fakeInbox) MarkAllRead(context.Context, uuid.UUID) (int64, error) {
	return 0, nil
}

func (f *fakeInbox) SetEmailPreference(context.Context, uuid.UUID, entity.NotificationKind, bool) (*entity.NotificationPreference, error) {
	return nil, nil
}

type testServer struct {
	echo   *echo.Echo
	tokens service.TokenService
	inbox  *fakeInbox
}

func newTestServer(t *testing.T, overrides ...func(*router.RouterParams)) *testServer {
	t.Helper()

	cfg := &config.Config{}
	cfg.SecretKey.Access = "server-test-access-secret-0123456789"
	cfg.Metrics.Path = "/metrics"

	tokens, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	logger := testutil.NewLogger()
	m := metrics.NewMetrics()
	inbox := &fakeInbox{unread: 3}

	e := NewEcho(cfg, logger, m)
	params := router.RouterParams{
		AccountHandler:      handler.NewAccountHandler(handler.AccountHandlerParams{Logger: logger}),
		DeviceHandler:       handler.NewDeviceHandler(handler.DeviceHandlerParams{Logger: logger}),
		ItemHandler:         handler.NewItemHandler(handler.ItemHandlerParams{Logger: logger}),
		CartHandler:         handler.NewCartHandler(handler.CartHandlerParams{Logger: logger}),
		OrderHandler:        handler.NewOrderHandler(handler.OrderHandlerParams{Logger: logger}),
		WishlistHandler:     handler.NewWishlistHandler(handler.WishlistHandlerParams{Logger: logger}),
		NotificationHandler: handler.NewNotificationHandler(handler.NotificationHandlerParams{NotificationUC: inbox, Logger: logger}),
		AdminHandler:        handler.NewAdminHandler(handler.AdminHandlerParams{Logger: logger}),
		AuthMiddleware:      httpmiddleware.NewAuthMiddleware(tokens),
		Metrics:             m,
		Config:              cfg,
	}
	for _, override := range overrides {
		override(&params)
	}
	router.NewRouter(params).RegisterRoutes(e)

	return &testServer{echo: e, tokens: tokens, inbox: inbox}
}

func (s *testServer) token(t *testing.T, roles ...entity.Role) string {
	t.Helper()

	return s.tokenFor(t, uuid.New(), roles...)
}

func (s *testServer) tokenFor(t *testing.T, userID uuid.UUID, roles ...entity.Role) string {
	t.Helper()

	token, _, err := s.tokens.GenerateAccessToken(userID, entity.Roles(roles).ToStrings())
	require.NoError(t, err)

	return token
}

func (s *testServer) do(method, target, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) response.Response {
	t.Helper()

	var resp response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	return resp
}

func TestServer_HealthAndRequestID(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestServer_AuthRequired(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/notifications/unread_count", nil)
	req.Header.Set("X-Request-Id", "req-abc")
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "AUTH_REQUIRED", resp.Error.Code)
	assert.Equal(t, "req-abc", resp.RequestID)
	assert.Equal(t, "req-abc", rec.Header().Get("X-Request-Id"))

	rec = srv.do(http.MethodGet, "/notifications/unread_count", "not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_UnreadCountShape(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodGet, "/notifications/unread_count", srv.token(t, entity.RoleUser), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":3}`, rec.Body.String())
}

func TestServer_AdminRoutesNeedAdminRole(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodGet, "/admin/items/pending", srv.token(t, entity.RoleUser), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "FORBIDDEN", resp.Error.Code)
	assert.Empty(t, resp.Error.Details)
}

func TestServer_ErrorRendering(t *testing.T) {
	srv := newTestServer(t)
	token := srv.token(t, entity.RoleUser)

	t.Run("malformed id", func(t *testing.T) {
		rec := srv.do(http.MethodPost, "/notifications/42/read", token, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_ID", decodeEnvelope(t, rec).Error.Code)
	})

	t.Run("domain error", func(t *testing.T) {
		srv.inbox.markErr = errors.WithStack(domainerrors.ErrNotificationNotFound)
		rec := srv.do(http.MethodPost, "/notifications/"+uuid.NewString()+"/read", token, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NOTIFICATION_NOT_FOUND", decodeEnvelope(t, rec).Error.Code)
	})

	t.Run("unexpected error is not leaked", func(t *testing.T) {
		srv.inbox.markErr = errors.New("connection reset by peer")
		rec := srv.do(http.MethodPost, "/notifications/"+uuid.NewString()+"/read", token, "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "INTERNAL_ERROR", decodeEnvelope(t, rec).Error.Code)
		assert.NotContains(t, rec.Body.String(), "connection reset")
	})

	t.Run("success", func(t *testing.T) {
		srv.inbox.markErr = nil
		id := uuid.New()
		rec := srv.do(http.MethodPost, "/notifications/"+id.String()+"/read", token, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, srv.inbox.marked, id)
	})

	t.Run("unknown route", func(t *testing.T) {
		rec := srv.do(http.MethodGet, "/nowhere", "", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "HTTP_ERROR", decodeEnvelope(t, rec).Error.Code)
	})
}

func TestServer_ValidationNamesJSONField(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodPost, "/auth/register", "", `{"name":"Ada"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, domainerrors.ErrValidationFailed.ErrorCode(), resp.Error.Code)
	assert.Equal(t, "email", resp.Error.Details)
}

func TestServer_MetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	srv.do(http.MethodGet, "/health", "", "")
	rec := srv.do(http.MethodGet, "/metrics", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `tradepost_http_requests_total{method="GET",route="/health",status="200"} 1`)
}
