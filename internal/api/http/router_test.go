package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nxl-pharma/crm-api/internal/api/http/handlers"
	"github.com/nxl-pharma/crm-api/internal/auth"
	"github.com/nxl-pharma/crm-api/internal/config"
	"github.com/nxl-pharma/crm-api/internal/domain"
	"github.com/nxl-pharma/crm-api/internal/events"
	"github.com/nxl-pharma/crm-api/internal/observability"
	"github.com/nxl-pharma/crm-api/internal/repository"
	"github.com/nxl-pharma/crm-api/internal/service"
	"github.com/nxl-pharma/crm-api/internal/testutil"
)

const testPassword = "correct horse battery"

type testServer struct {
	app         *fiber.App
	tokens      *auth.TokenManager
	staff       *testutil.StaffRepo
	subscribers *testutil.SubscriberRepo
	inquiries   *testutil.InquiryRepo
	metrics     *observability.Metrics
	now         time.Time
}

func newTestServer(t *testing.T, members ...*domain.StaffMember) *testServer {
	t.Helper()
	now := time.Now().UTC()
	clock := func() time.Time { return now }
	cfg := config.Config{
		App:     config.AppConfig{Name: "crm-api", SiteURL: "https://nxl.example", AdminURL: "https://admin.nxl.example"},
		Auth:    config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 60, BcryptCost: 4, CookieName: "nxl_jwt", LoginMaxFailures: 5, LoginLockoutMinutes: 15, PasswordResetTTLMinutes: 60},
		Storage: config.StorageConfig{MaxUploadBytes: 1 << 20, ThumbnailWidth: 32},
	}

	for _, m := range members {
		hash, err := auth.HashPassword(testPassword, 4)
		require.NoError(t, err)
		m.PasswordHash = hash
	}

	s := &testServer{
		tokens:      auth.NewTokenManager(cfg.Auth.JWTSecret, time.Hour),
		staff:       testutil.NewStaffRepo(members...),
		subscribers: testutil.NewSubscriberRepo(),
		inquiries:   testutil.NewInquiryRepo(),
		now:         now,
	}
	resets := testutil.NewPasswordResetRepo()
	logs := testutil.NewActivityLogRepo()
	keys := testutil.NewKeyStore(clock)
	dispatcher := events.NewInMemoryDispatcher(nil)
	metrics := observability.NewMetrics()
	s.metrics = metrics
	logger := zap.NewNop()

	authService := service.NewAuthService(cfg, service.AuthDependencies{
		StaffRepo: s.staff, PasswordResetRepo: resets, Keys: keys, TokenManager: s.tokens, Dispatcher: dispatcher, Now: clock,
	})
	staffService := service.NewStaffService(cfg, service.StaffDependencies{
		StaffRepo: s.staff, PasswordResetRepo: resets, Dispatcher: dispatcher, Mailer: &testutil.Mailer{}, Now: clock,
	})
	subscriberService := service.NewSubscriberService(service.SubscriberDependencies{
		SubscriberRepo: s.subscribers, Dispatcher: dispatcher, Now: clock,
	})
	inquiryService := service.NewInquiryService(service.InquiryDependencies{
		InquiryRepo: s.inquiries, Dispatcher: dispatcher, Mailer: &testutil.Mailer{}, Now: clock,
	})
	mediaService := service.NewMediaService(cfg.Storage, service.MediaDependencies{
		Repos: []repository.MediaRepository{
			testutil.NewMediaRepo(domain.MediaKindGallery),
			testutil.NewMediaRepo(domain.MediaKindCertifications),
		},
		Store: testutil.NewObjectStore("https://cdn.nxl.example"), Keys: keys, Dispatcher: dispatcher, Now: clock,
	})
	analyticsService := service.NewAnalyticsService(cfg, service.AnalyticsDependencies{
		InquiryRepo: s.inquiries, SubscriberRepo: s.subscribers, VisitorRepo: testutil.NewVisitorRepo(), Media: mediaService, Now: clock,
	})
	exportService := service.NewExportService(service.ExportDependencies{InquiryRepo: s.inquiries, ActivityLogRepo: logs})

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger, metrics)})
	RegisterMiddlewares(app, logger, metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("crm-api", "test", nil),
		Auth:           handlers.NewAuthHandler(authService, cfg.Auth),
		Staff:          handlers.NewStaffHandler(staffService),
		Subscribers:    handlers.NewSubscribersHandler(subscriberService, cfg.Storage.MaxUploadBytes),
		Inquiries:      handlers.NewInquiriesHandler(inquiryService),
		Media:          handlers.NewMediaHandler(mediaService, analyticsService.VisitorHash),
		Analytics:      handlers.NewAnalyticsHandler(analyticsService),
		Export:         handlers.NewExportHandler(exportService),
		System:         handlers.NewSystemHandler(metrics, "test"),
		AuthMiddleware: auth.NewAuthMiddleware(s.tokens, s.staff, cfg.Auth.CookieName),
		PublicLimiter:  NewIPRateLimiter(0.001, 2),
		BeaconLimiter:  NewIPRateLimiter(0.001, 3),
	})
	s.app = app
	return s
}

func member(id string, role domain.StaffRole) *domain.StaffMember {
	return &domain.StaffMember{ID: id, Name: "Member " + id, Email: id + "@nxl.example", Role: role}
}

func (s *testServer) bearer(t *testing.T, id string) string {
	t.Helper()
	m, err := s.staff.GetByID(context.Background(), id)
	require.NoError(t, err)
	token, _, err := s.tokens.GenerateToken(m)
	require.NoError(t, err)
	return "Bearer " + token
}

func (s *testServer) do(t *testing.T, method, path, authz, body string) (*nethttp.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if authz != "" {
		req.Header.Set(fiber.HeaderAuthorization, authz)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) && len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func TestLogin_SetsSessionCookie(t *testing.T) {
	s := newTestServer(t, member("ada", domain.StaffRoleAdmin))

	resp, body := s.do(t, fiber.MethodPost, "/api/auth/login", "", `{"email":"ADA@nxl.example","password":"`+testPassword+`"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["token"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "ada@nxl.example", user["email"])
	assert.NotContains(t, user, "passwordHash")

	var session *nethttp.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "nxl_jwt" {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)
	assert.Equal(t, body["token"], session.Value)

	req := httptest.NewRequest(fiber.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&nethttp.Cookie{Name: "nxl_jwt", Value: session.Value})
	me, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, me.StatusCode)
}

func TestLogin_InvalidCredentialsBody(t *testing.T) {
	s := newTestServer(t, member("ada", domain.StaffRoleAdmin))

	resp, body := s.do(t, fiber.MethodPost, "/api/auth/login", "", `{"email":"ada@nxl.example","password":"nope"}`)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, map[string]any{"error": "Invalid credentials", "code": "UNAUTHORIZED"}, body)

	resp, body = s.do(t, fiber.MethodPost, "/api/auth/login", "", `{"email":"ghost@nxl.example","password":"nope"}`)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid credentials", body["error"])
}

func TestProtectedRoutes_RequireSession(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, fiber.MethodGet, "/api/subscribers", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", body["code"])

	resp, _ = s.do(t, fiber.MethodGet, "/api/subscribers", "Bearer not-a-jwt", "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRoleGuards(t *testing.T) {
	s := newTestServer(t,
		member("sam", domain.StaffRoleStaff),
		member("ada", domain.StaffRoleAdmin),
		member("root", domain.StaffRoleDev),
	)

	cases := []struct {
		name   string
		method string
		path   string
		as     string
		status int
	}{
		{"staff lists subscribers", fiber.MethodGet, "/api/subscribers", "sam", fiber.StatusOK},
		{"staff cannot list accounts", fiber.MethodGet, "/api/staff", "sam", fiber.StatusForbidden},
		{"admin lists accounts", fiber.MethodGet, "/api/staff", "ada", fiber.StatusOK},
		{"admin cannot delete inquiries", fiber.MethodDelete, "/api/inquiries/x", "ada", fiber.StatusForbidden},
		{"admin cannot read metrics", fiber.MethodGet, "/api/system/metrics", "ada", fiber.StatusForbidden},
		{"dev reads metrics", fiber.MethodGet, "/api/system/metrics", "root", fiber.StatusOK},
		{"staff cannot export", fiber.MethodGet, "/api/export/contacts.csv", "sam", fiber.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := s.do(t, tc.method, tc.path, s.bearer(t, tc.as), "")
			assert.Equal(t, tc.status, resp.StatusCode)
			if tc.status == fiber.StatusForbidden {
				assert.Equal(t, "FORBIDDEN", body["code"])
			}
		})
	}
}

func TestSubscriberList_LockedPerRole(t *testing.T) {
	s := newTestServer(t, member("ada", domain.StaffRoleAdmin), member("sup", domain.StaffRoleSuperadmin))
	ctx := context.Background()
	require.NoError(t, s.subscribers.Insert(ctx, &domain.Subscriber{Email: "old@x.example", AddedAt: s.now.Add(-25 * time.Hour)}))
	require.NoError(t, s.subscribers.Insert(ctx, &domain.Subscriber{Email: "new@x.example", AddedAt: s.now.Add(-time.Hour)}))

	locked := func(as string) map[string]bool {
		resp, body := s.do(t, fiber.MethodGet, "/api/subscribers", s.bearer(t, as), "")
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.EqualValues(t, 2, body["total"])
		out := map[string]bool{}
		for _, raw := range body["subscribers"].([]any) {
			sub := raw.(map[string]any)
			out[sub["email"].(string)] = sub["locked"].(bool)
		}
		return out
	}

	assert.Equal(t, map[string]bool{"old@x.example": true, "new@x.example": false}, locked("ada"))
	assert.Equal(t, map[string]bool{"old@x.example": false, "new@x.example": false}, locked("sup"))

	resp, body := s.do(t, fiber.MethodDelete, "/api/subscribers?email=old@x.example", s.bearer(t, "ada"), "")
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", body["code"])
}

func TestExport_SendsCSVAttachment(t *testing.T) {
	s := newTestServer(t, member("ada", domain.StaffRoleAdmin))

	req := httptest.NewRequest(fiber.MethodGet, "/api/export/contacts.csv", nil)
	req.Header.Set(fiber.HeaderAuthorization, s.bearer(t, "ada"))
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get(fiber.HeaderContentType))
	disposition := resp.Header.Get(fiber.HeaderContentDisposition)
	assert.True(t, strings.HasPrefix(disposition, `attachment; filename="contacts-`), disposition)
	assert.True(t, strings.HasSuffix(disposition, `.csv"`), disposition)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(raw), "\n"))

	resp, body := s.do(t, fiber.MethodGet, "/api/export/passwords.csv", s.bearer(t, "ada"), "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestContact_ValidationBody(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, fiber.MethodPost, "/api/contact", "", `{"name":"","email":"nope","message":""}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", body["code"])
	details := body["details"].(map[string]any)
	assert.Equal(t, "required", details["name"])
	assert.Equal(t, "invalid", details["email"])
}

func TestPublicRoutes_AreRateLimited(t *testing.T) {
	s := newTestServer(t)
	payload := `{"name":"Dana","email":"dana@x.example","message":"Hello"}`

	for i := 0; i < 2; i++ {
		resp, body := s.do(t, fiber.MethodPost, "/api/contact", "", payload)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
		assert.Equal(t, true, body["ok"])
	}

	resp, body := s.do(t, fiber.MethodPost, "/api/contact", "", payload)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "RATE_LIMITED", body["code"])
	assert.Equal(t, "1", resp.Header.Get(fiber.HeaderRetryAfter))
}

func TestExport_CursorFailureIsNotAPartialCSV(t *testing.T) {
	s := newTestServer(t, member("dev", domain.StaffRoleDev))
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.inquiries.Create(context.Background(), &domain.Inquiry{
			ID: id, Name: "N", Email: id + "@x.example", Message: "m", Status: domain.InquiryStatusNew, CreatedAt: s.now,
		}))
	}
	s.inquiries.EachErr = errors.New("cursor closed")

	resp, body := s.do(t, fiber.MethodGet, "/api/export/contacts.csv", s.bearer(t, "dev"), "")
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "INTERNAL_ERROR", body["code"])
	assert.Empty(t, resp.Header.Get(fiber.HeaderContentDisposition))
}

func TestBeaconRoutes_DoNotSpendFormAllowance(t *testing.T) {
	s := newTestServer(t)
	track := `{"path":"/gallery"}`

	for i := 0; i < 3; i++ {
		resp, _ := s.do(t, fiber.MethodPost, "/api/visitors/track", "", track)
		require.NotEqual(t, fiber.StatusTooManyRequests, resp.StatusCode)
	}
	resp, body := s.do(t, fiber.MethodPost, "/api/visitors/track", "", track)
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "RATE_LIMITED", body["code"])

	resp, _ = s.do(t, fiber.MethodPost, "/api/contact", "", `{"name":"Dana","email":"dana@x.example","message":"Hello"}`)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func TestErrorMetrics_KeyedByRoutePattern(t *testing.T) {
	s := newTestServer(t, member("staff", domain.StaffRoleStaff))
	authz := s.bearer(t, "staff")

	for i := 0; i < 50; i++ {
		resp, body := s.do(t, fiber.MethodGet, fmt.Sprintf("/api/inquiries/id-%04d", i), authz, "")
		require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", body["code"])
	}

	errs := s.metrics.Snapshot().Errors
	require.Len(t, errs, 1)
	assert.Equal(t, int64(50), errs["/api/inquiries/:id|GET|NOT_FOUND"])
}

func TestErrorMetrics_UnknownPathsStayBounded(t *testing.T) {
	s := newTestServer(t)

	for i := 0; i < 50; i++ {
		resp, _ := s.do(t, fiber.MethodGet, fmt.Sprintf("/api/scan-%04d", i), "", "")
		require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		resp, _ = s.do(t, fiber.MethodGet, fmt.Sprintf("/wp-%04d.php", i), "", "")
		require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	}

	errs := s.metrics.Snapshot().Errors
	assert.Len(t, errs, 2)
	for key := range errs {
		assert.NotContains(t, key, "scan-")
		assert.NotContains(t, key, "wp-")
	}
}

func TestHealth_Live(t *testing.T) {
	s := newTestServer(t)
	resp, body := s.do(t, fiber.MethodGet, "/health/live", "", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body)
}
