package app_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contractor-desk/contractor-desk/internal/app"
	"github.com/contractor-desk/contractor-desk/internal/auth"
	"github.com/contractor-desk/contractor-desk/internal/backend"
	"github.com/contractor-desk/contractor-desk/internal/backend/backendtest"
	"github.com/contractor-desk/contractor-desk/internal/masterdata"
	"github.com/contractor-desk/contractor-desk/internal/observability"
	"github.com/contractor-desk/contractor-desk/internal/shared"
	"github.com/contractor-desk/contractor-desk/internal/view"
	_ "github.com/contractor-desk/contractor-desk/testing"
)

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

var csrfField = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

type browser struct {
	t      *testing.T
	router http.Handler
	cookie *http.Cookie
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	res := httptest.NewRecorder()
	b.router.ServeHTTP(res, req)
	for _, c := range res.Result().Cookies() {
		if c.Name == "desk_session" {
			b.cookie = c
		}
	}
	return res
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) csrfToken(page string) string {
	b.t.Helper()
	match := csrfField.FindStringSubmatch(b.get(page).Body.String())
	require.Len(b.t, match, 2, "csrf field on %s", page)
	return match[1]
}

func newTestRouter(t *testing.T, pinger app.Pinger) (http.Handler, *backendtest.Server) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	api := backendtest.NewServer(t)
	cfg := &app.Config{AppEnv: "test", SessionSecret: "s", CSRFSecret: "c", APIBaseURL: api.URL, AppRequestTimeout: 5 * time.Second}
	sessions := shared.NewSessionManager(redisClient, "desk_session", cfg.SessionSecret, time.Hour, false)
	csrf := shared.NewCSRFManager(cfg.CSRFSecret)
	templates, err := view.NewEngine()
	require.NoError(t, err)

	metrics := observability.NewMetrics()
	client := backend.NewClient(api.URL, backend.WithRecorder(metrics))
	desks := masterdata.NewDesks(client)
	if pinger == nil {
		pinger = client
	}
	router := app.NewRouter(app.RouterParams{
		Config:            cfg,
		SessionManager:    sessions,
		CSRFManager:       csrf,
		AuthHandler:       auth.NewHandler(nil, auth.NewService(client.Bind(nil)), templates, sessions, csrf, desks),
		MasterDataHandler: masterdata.NewHandler(nil, templates, csrf, desks, nil),
		Backend:           pinger,
		Metrics:           metrics,
	})
	return router, api
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"backend":"ok","sessions":"unchecked"}}`, res.Body.String())

	router, _ = newTestRouter(t, failingPinger{})
	res = httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, res.Code)
	assert.Contains(t, res.Body.String(), "backend: connection refused")
}

func TestAnonymousRedirectsToLogin(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	b := &browser{t: t, router: router}
	for _, path := range []string{"/", "/contractors", "/suppliers/export.csv"} {
		res := b.get(path)
		assert.Equal(t, http.StatusSeeOther, res.Code, path)
		assert.Equal(t, "/auth/login", res.Header().Get("Location"), path)
	}
}

func TestPostWithoutCSRFTokenIsForbidden(t *testing.T) {
	router, api := newTestRouter(t, nil)
	b := &browser{t: t, router: router}
	b.get("/auth/login")

	res := b.post("/auth/login", url.Values{"email": {"admin@example.com"}, "password": {"secret1"}})
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Zero(t, api.Calls("POST /auth/login"))
}

func TestSignInAndManageRecords(t *testing.T) {
	router, api := newTestRouter(t, nil)
	api.Seed("contractors", map[string]any{"name": "Alice", "contactNo": "555", "address": "X", "workCategory": "Piling"})
	b := &browser{t: t, router: router}

	token := b.csrfToken("/auth/login")
	res := b.post("/auth/login", url.Values{"email": {"admin@example.com"}, "password": {"secret1"}, "csrf_token": {token}})
	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/", res.Header().Get("Location"))

	res = b.get("/")
	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/contractors", res.Header().Get("Location"))

	res = b.get("/contractors")
	require.Equal(t, http.StatusOK, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, "Welcome back, Admin!")
	assert.Contains(t, body, "Alice")
	assert.Equal(t, "nosniff", res.Header().Get("X-Content-Type-Options"))

	token = b.csrfToken("/contractors/new")
	res = b.post("/contractors/form", url.Values{
		"csrf_token":   {token},
		"name":         {"Bashir"},
		"contactNo":    {"777"},
		"address":      {"Banani"},
		"workCategory": {"Civil"},
	})
	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Len(t, api.Records("contractors"), 2)

	res = b.get("/contractors")
	assert.Contains(t, res.Body.String(), "Contractor added successfully")
	assert.Contains(t, res.Body.String(), "Bashir")
}

func TestLogoutEndsSession(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	b := &browser{t: t, router: router}
	token := b.csrfToken("/auth/login")
	b.post("/auth/login", url.Values{"email": {"admin@example.com"}, "password": {"secret1"}, "csrf_token": {token}})

	token = b.csrfToken("/contractors")
	res := b.post("/auth/logout", url.Values{"csrf_token": {token}})
	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/auth/login", res.Header().Get("Location"))

	res = b.get("/contractors")
	assert.Equal(t, http.StatusSeeOther, res.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	b := &browser{t: t, router: router}
	b.get("/auth/login")

	res := b.get("/metrics")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "desk_http_requests_total")
}

func TestStaticAssets(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/static/css/app.css", nil))
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "public, max-age=3600", res.Header().Get("Cache-Control"))
}
