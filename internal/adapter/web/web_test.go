package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymlog/internal/auth"
	"gymlog/internal/event"
	"gymlog/internal/platform/sqlite"
	"gymlog/internal/storage"
)

type testServer struct {
	router *gin.Engine
	events *event.Recorder
	cookie *http.Cookie
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tdb := sqlite.NewTestDBFile(t)
	tdb.ApplyTestMigrations(t, storage.Migrations, storage.MigrationsDir)

	rec := &event.Recorder{}
	tokens := auth.NewTokens(auth.TokenConfig{Secret: "test-secret", Issuer: "gymlog-test", TTL: time.Hour})

	router := NewRouter(Deps{
		Users:     storage.NewUsers(tdb.Service),
		Sessions:  storage.NewSessions(tdb.Service, rec),
		Exercises: storage.NewExercises(tdb.Service, rec),
		Sets:      storage.NewSets(tdb.Service, rec),
		Hasher:    auth.NewBcryptHasher(4),
		Tokens:    tokens,
		Events:    rec,
		Ready:     func() bool { return true },
	})
	return &testServer{router: router, events: rec}
}

// do sends a JSON request, attaching the auth cookie captured by login.
func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if s.cookie != nil {
		req.AddCookie(s.cookie)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// login registers (ignoring an already-exists answer) and logs the user in,
// capturing the auth cookie for subsequent requests.
func (s *testServer) login(t *testing.T, username, password string) {
	t.Helper()

	creds := gin.H{"username": username, "password": password}
	s.do(t, http.MethodPost, "/api/register", creds)

	w := s.do(t, http.MethodPost, "/api/login", creds)
	require.Equal(t, http.StatusOK, w.Code)

	for _, c := range w.Result().Cookies() {
		if c.Name == auth.CookieName {
			s.cookie = c
			return
		}
	}
	t.Fatal("login response carries no auth cookie")
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/register", gin.H{"username": "anna", "password": "secret"})
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, "anna", body["username"])
	assert.NotContains(t, body, "password")

	// Duplicate username answers 400, not 409.
	w = s.do(t, http.MethodPost, "/api/register", gin.H{"username": "anna", "password": "other"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/register", gin.H{"username": "anna"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/register", gin.H{"username": "anna", "password": "secret"})

	w := s.do(t, http.MethodPost, "/api/login", gin.H{"username": "anna", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/login", gin.H{"username": "nobody", "password": "secret"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/login", gin.H{"username": "anna", "password": "secret"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, s.events.Named(event.UserLogin), 1)
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/sessions", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/sessions", gin.H{"date": "2026-01-10"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionRoutes(t *testing.T) {
	s := newTestServer(t)
	s.login(t, "anna", "secret")

	w := s.do(t, http.MethodPost, "/api/sessions", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/sessions", gin.H{"date": "2026-01-10"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode(t, w)
	assert.Equal(t, "2026-01-10", created["date"])

	w = s.do(t, http.MethodGet, "/api/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	w = s.do(t, http.MethodGet, "/api/sessions/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/sessions/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/sessions/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode(t, w)
	assert.NotNil(t, detail["exercises"])

	w = s.do(t, http.MethodPost, "/api/sessions/1/close", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["closed"])

	w = s.do(t, http.MethodDelete, "/api/sessions/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/sessions/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExerciseRoutes(t *testing.T) {
	s := newTestServer(t)
	s.login(t, "anna", "secret")

	w := s.do(t, http.MethodPost, "/api/sessions", gin.H{"date": "2026-01-10"})
	require.Equal(t, http.StatusCreated, w.Code)

	// Blank name keeps answering 405 for API compatibility.
	w = s.do(t, http.MethodPost, "/api/sessions/1/exercises", gin.H{"name": "  "})
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	w = s.do(t, http.MethodPost, "/api/sessions/1/exercises", gin.H{})
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = s.do(t, http.MethodPost, "/api/sessions/abc/exercises", gin.H{"name": "Squat"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/sessions/999/exercises", gin.H{"name": "Squat"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/sessions/1/exercises", gin.H{"name": "Squat"})
	require.Equal(t, http.StatusCreated, w.Code)

	// Writes to a closed session conflict.
	w = s.do(t, http.MethodPost, "/api/sessions/1/close", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodPost, "/api/sessions/1/exercises", gin.H{"name": "Bench"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodDelete, "/api/exercises/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodDelete, "/api/exercises/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetRoutes(t *testing.T) {
	s := newTestServer(t)
	s.login(t, "anna", "secret")

	s.do(t, http.MethodPost, "/api/sessions", gin.H{"date": "2026-01-10"})
	w := s.do(t, http.MethodPost, "/api/sessions/1/exercises", gin.H{"name": "Squat"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodPost, "/api/exercises/1/sets", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/exercises/1/sets", gin.H{"reps": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/exercises/999/sets", gin.H{"reps": 5})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/exercises/1/sets", gin.H{"reps": 5, "weight": 102.5})
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, 102.5, body["weight"])

	// Weight is optional.
	w = s.do(t, http.MethodPost, "/api/exercises/1/sets", gin.H{"reps": 10})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Nil(t, decode(t, w)["weight"])

	w = s.do(t, http.MethodDelete, "/api/sets/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodDelete, "/api/sets/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOwnershipDoesNotLeakAcrossUsers(t *testing.T) {
	s := newTestServer(t)

	s.login(t, "anna", "secret")
	w := s.do(t, http.MethodPost, "/api/sessions", gin.H{"date": "2026-01-10"})
	require.Equal(t, http.StatusCreated, w.Code)

	s.login(t, "boris", "secret")
	// Another user's session is indistinguishable from a missing one.
	w = s.do(t, http.MethodGet, "/api/sessions/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(t, http.MethodDelete, "/api/sessions/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(t, http.MethodPost, "/api/sessions/1/exercises", gin.H{"name": "Squat"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChangePassword(t *testing.T) {
	s := newTestServer(t)
	s.login(t, "anna", "secret")

	w := s.do(t, http.MethodPut, "/api/user/password",
		gin.H{"oldPassword": "secret", "newPassword": "next", "confirmPassword": "other"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/api/user/password",
		gin.H{"oldPassword": "wrong", "newPassword": "next", "confirmPassword": "next"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPut, "/api/user/password",
		gin.H{"oldPassword": "secret", "newPassword": "next", "confirmPassword": "next"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/login", gin.H{"username": "anna", "password": "secret"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = s.do(t, http.MethodPost, "/api/login", gin.H{"username": "anna", "password": "next"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeleteUser(t *testing.T) {
	s := newTestServer(t)
	s.login(t, "anna", "secret")
	s.do(t, http.MethodPost, "/api/sessions", gin.H{"date": "2026-01-10"})

	w := s.do(t, http.MethodDelete, "/api/user", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/login", gin.H{"username": "anna", "password": "secret"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout(t *testing.T) {
	s := newTestServer(t)
	s.login(t, "anna", "secret")

	w := s.do(t, http.MethodPost, "/api/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, s.events.Named(event.UserLogout), 1)

	// The response clears the cookie.
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.CookieName {
			assert.Empty(t, c.Value)
			assert.Negative(t, c.MaxAge)
		}
	}
}

func TestReadyProbe(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ready := false
	router := NewRouter(Deps{
		Tokens: auth.NewTokens(auth.TokenConfig{Secret: "s", Issuer: "i", TTL: time.Hour}),
		Hasher: auth.NewBcryptHasher(4),
		Ready:  func() bool { return ready },
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	ready = true
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/sessions", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
