package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"toursite-backend-go/internal/config"
	"toursite-backend-go/internal/services"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gorilla/websocket"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestServer(t *testing.T) (*Server, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp), sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })

	assets := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(assets, "index.html"), []byte("<h1>console</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(assets, "login.html"), []byte("<h1>login</h1>"), 0o644))

	cfg := config.Config{
		Environment:     "test",
		AdminPassword:   "letmein",
		SessionSecret:   testSecret,
		SessionTTLHours: 24,
		AdminAssetsDir:  assets,
		ImageStore:      "local",
		MediaDir:        t.TempDir(),
		MetricsDiskPath: "/",
	}
	images := services.Uploader{Store: services.LocalImageStore{Dir: cfg.MediaDir, BaseURL: "/media"}}
	srv := NewServer(sqlx.NewDb(raw, "sqlmock"), cfg, zerolog.Nop(), images, nil, services.NewEventHub())
	return srv, mock
}

func sessionCookie(t *testing.T, srv *Server) *http.Cookie {
	t.Helper()
	token, _, err := srv.Sessions.Issue()
	require.NoError(t, err)
	return srv.Sessions.Cookie(token)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestAdminConsoleRedirectsWithoutSession(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/bookings", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/admin/login?redirect=%2Fadmin%2Fbookings", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "login")
}

func TestAdminConsoleWithSession(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()
	cookie := sessionCookie(t, srv)

	req := httptest.NewRequest(http.MethodGet, "/admin/login", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))

	req = httptest.NewRequest(http.MethodGet, "/admin/bookings", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "console")
}

func TestAdminAPIRequiresSession(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/settings", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, "Authentication required", env.Error)

	forged := &http.Cookie{Name: services.SessionCookieName, Value: "eyJhbGciOiJIUzI1NiJ9.e30.bogus"}
	req := httptest.NewRequest(http.MethodGet, "/api/admin/settings", nil)
	req.AddCookie(forged)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginSetsCookie(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"password":"nope"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"password":"letmein","redirect":"https://evil.example"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, services.SessionCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	var body struct {
		Data SessionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Data.Authenticated)
	assert.Equal(t, "/admin", body.Data.Redirect)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), `"authenticated":true`)
}

func TestSafeRedirect(t *testing.T) {
	assert.Equal(t, "/admin/bookings?page=2", safeRedirect("/admin/bookings?page=2"))
	assert.Equal(t, "/admin", safeRedirect("//evil.example/admin"))
	assert.Equal(t, "/admin", safeRedirect("/admin/login?redirect=/admin"))
	assert.Equal(t, "/admin", safeRedirect(""))
}

func TestCreateBookingValidation(t *testing.T) {
	srv, mock := newTestServer(t)
	router := srv.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/public/bookings", strings.NewReader(`{"name":"","email":"bad","guests":0}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "Validation failed", env.Error)
	assert.NotEmpty(t, env.Fields)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingStoresPendingInquiry(t *testing.T) {
	srv, mock := newTestServer(t)
	router := srv.Router()

	mock.ExpectExec(`INSERT INTO bookings`).WillReturnResult(sqlmock.NewResult(0, 1))

	body, _ := json.Marshal(services.BookingRequest{
		Name:        "Asha",
		Email:       "Asha@Example.com",
		Phone:       "+977 980-000-0000",
		Guests:      2,
		PackageSlug: "everest-base-camp",
		TravelDate:  time.Now().UTC().AddDate(0, 1, 0).Format("2006-01-02"),
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/public/bookings", bytes.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"pending"`)
	assert.Contains(t, rec.Body.String(), `"email":"asha@example.com"`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExportBookingsXLSX(t *testing.T) {
	srv, mock := newTestServer(t)
	router := srv.Router()
	now := time.Now()

	mock.ExpectQuery(`FROM bookings WHERE status = \$1 ORDER BY created_at ASC, id ASC`).WithArgs("confirmed").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "phone", "guests", "package_slug", "travel_date", "message", "status", "admin_notes", "created_at", "updated_at"}).
			AddRow("b-1", "Asha", "asha@example.com", "9800000000", 2, "ebc", now, "", "confirmed", "", now, now))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/bookings/export?status=confirmed", nil)
	req.AddCookie(sessionCookie(t, srv))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "bookings-")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
	require.NoError(t, mock.ExpectationsWereMet())

	req = httptest.NewRequest(http.MethodGet, "/api/admin/bookings/export?status=lost", nil)
	req.AddCookie(sessionCookie(t, srv))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownPageKind(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/public/pages/pricing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSavePageRejectsUnknownFields(t *testing.T) {
	srv, mock := newTestServer(t)
	req := httptest.NewRequest(http.MethodPut, "/api/admin/pages/contact", strings.NewReader(`{"heroTitle":"x","colour":"red"}`))
	req.AddCookie(sessionCookie(t, srv))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, decodeEnvelope(t, rec).Success)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthAndMetrics(t *testing.T) {
	srv, mock := newTestServer(t)
	router := srv.Router()

	mock.ExpectPing()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `toursite_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
}

func TestWriteServiceErrorHidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	writeServiceError(rec, zerolog.Nop(), services.ErrStorage(assert.AnError))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())

	rec = httptest.NewRecorder()
	writeServiceError(rec, zerolog.Nop(), services.ErrConflict("Email is already subscribed", services.ErrAlreadySubscribed))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAdminSocketReceivesEvents(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go srv.Hub.Run(ctx)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/admin"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	cookie := sessionCookie(t, srv)
	header := http.Header{}
	header.Set("Cookie", cookie.Name+"="+cookie.Value)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return srv.Hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)
	srv.Hub.Publish("booking.created", map[string]string{"id": "b-1"})

	var event services.Event
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "booking.created", event.Type)
}
