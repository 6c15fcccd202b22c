package server

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/tasktally/core/internal/infrastructure/config"
	"github.com/tasktally/core/internal/infrastructure/database"
	"github.com/tasktally/core/internal/infrastructure/logger"
)

// ServerTestSuite drives the full HTTP surface against in-memory SQLite
// partitions, cookies and redirects included.
type ServerTestSuite struct {
	suite.Suite
	handler http.Handler
	session *http.Cookie
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "tasktally",
			Version:     "test",
			Environment: "test",
		},
		Database: config.DatabaseConfig{
			UsersDSN:    ":memory:",
			TasksDSN:    ":memory:",
			SpendingDSN: ":memory:",
		},
		Session: config.SessionConfig{
			Secret:     "test-secret-test-secret-test-secret",
			TTL:        time.Hour,
			CookieName: "tasktally_session",
			Issuer:     "tasktally-test",
		},
		Security: config.SecurityConfig{
			RateLimitRequests: 1000,
			RateLimitWindow:   time.Minute,
		},
		Metrics: config.MetricsConfig{Enabled: false},
	}
}

func (s *ServerTestSuite) SetupTest() {
	cfg := testConfig()

	db, err := database.Open(cfg.Database)
	require.NoError(s.T(), err)
	s.T().Cleanup(func() { db.Close() })
	require.NoError(s.T(), db.Migrate())

	srv, err := New(cfg, db, logger.NewNop())
	require.NoError(s.T(), err)

	s.handler = srv.Handler()
	s.session = nil
}

// do runs one request through the server, attaching the captured session
// cookie when present.
func (s *ServerTestSuite) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if s.session != nil {
		req.AddCookie(s.session)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

// signUp registers and logs in a user, capturing the session cookie for
// subsequent requests.
func (s *ServerTestSuite) signUp(username, password string) {
	creds := url.Values{"username": {username}, "password": {password}}

	rec := s.do(http.MethodPost, "/register", creds)
	require.Equal(s.T(), http.StatusSeeOther, rec.Code, "register should redirect: %s", rec.Body.String())

	rec = s.do(http.MethodPost, "/login", creds)
	require.Equal(s.T(), http.StatusSeeOther, rec.Code, "login should redirect: %s", rec.Body.String())

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "tasktally_session" && cookie.Value != "" {
			s.session = cookie
		}
	}
	require.NotNil(s.T(), s.session, "login must set the session cookie")
}

func (s *ServerTestSuite) TestHealthEndpoint() {
	rec := s.do(http.MethodGet, "/health", nil)

	assert.Equal(s.T(), http.StatusOK, rec.Code)
	assert.Contains(s.T(), rec.Body.String(), `"status":"ok"`)
}

func (s *ServerTestSuite) TestUnauthenticatedRedirectsToLogin() {
	for _, target := range []string{"/", "/edit/1", "/logout"} {
		rec := s.do(http.MethodGet, target, nil)
		assert.Equal(s.T(), http.StatusSeeOther, rec.Code, target)
		assert.Equal(s.T(), "/login", rec.Header().Get("Location"), target)
	}
}

func (s *ServerTestSuite) TestAuthPagesArePublic() {
	for _, target := range []string{"/login", "/register"} {
		rec := s.do(http.MethodGet, target, nil)
		assert.Equal(s.T(), http.StatusOK, rec.Code, target)
	}
}

func (s *ServerTestSuite) TestTaskLifecycle() {
	s.signUp("alice", "password1")

	rec := s.do(http.MethodPost, "/", url.Values{"content": {"buy milk"}})
	require.Equal(s.T(), http.StatusSeeOther, rec.Code)

	rec = s.do(http.MethodGet, "/", nil)
	require.Equal(s.T(), http.StatusOK, rec.Code)
	assert.Contains(s.T(), rec.Body.String(), "buy milk")

	// Whitespace-only content is accepted silently but adds nothing.
	rec = s.do(http.MethodPost, "/", url.Values{"content": {"   "}})
	require.Equal(s.T(), http.StatusSeeOther, rec.Code)

	rec = s.do(http.MethodGet, "/", nil)
	assert.Equal(s.T(), 1, strings.Count(rec.Body.String(), "buy milk"))
}

func (s *ServerTestSuite) TestSpendingBreakdown() {
	s.signUp("alice", "password1")

	for _, amount := range []string{"1000", "200"} {
		rec := s.do(http.MethodPost, "/add_spending", url.Values{
			"category": {"rent"},
			"amount":   {amount},
			"month":    {"3"},
			"year":     {"2024"},
		})
		require.Equal(s.T(), http.StatusSeeOther, rec.Code)
	}

	rec := s.do(http.MethodGet, "/?filter_month=3&filter_year=2024", nil)
	require.Equal(s.T(), http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(s.T(), body, "rent")
	assert.Contains(s.T(), body, "1200.00")

	rec = s.do(http.MethodGet, "/?filter_month=4&filter_year=2024", nil)
	require.Equal(s.T(), http.StatusOK, rec.Code)
	assert.Contains(s.T(), rec.Body.String(), "No spending recorded for this period.")
}

func (s *ServerTestSuite) TestDeleteSpendingCategory() {
	s.signUp("alice", "password1")

	rec := s.do(http.MethodPost, "/add_spending", url.Values{
		"category": {"food"},
		"amount":   {"25"},
		"month":    {"3"},
		"year":     {"2024"},
	})
	require.Equal(s.T(), http.StatusSeeOther, rec.Code)

	rec = s.do(http.MethodPost, "/delete/spending/", url.Values{"category": {"food"}})
	require.Equal(s.T(), http.StatusSeeOther, rec.Code)

	rec = s.do(http.MethodGet, "/?filter_month=3&filter_year=2024", nil)
	assert.Contains(s.T(), rec.Body.String(), "No spending recorded for this period.")
}

func (s *ServerTestSuite) TestDeleteUnknownTypeIs404() {
	s.signUp("alice", "password1")

	rec := s.do(http.MethodPost, "/delete/bogus/", url.Values{})
	assert.Equal(s.T(), http.StatusNotFound, rec.Code)
}

func (s *ServerTestSuite) TestDuplicateUsernameRejected() {
	s.signUp("alice", "password1")
	s.session = nil

	rec := s.do(http.MethodPost, "/register", url.Values{
		"username": {"alice"},
		"password": {"password2"},
	})
	assert.Equal(s.T(), http.StatusConflict, rec.Code, "duplicate registration re-renders the form")
	assert.Contains(s.T(), rec.Body.String(), "already taken")
}

func (s *ServerTestSuite) TestWrongPasswordRejected() {
	s.signUp("alice", "password1")
	s.session = nil

	rec := s.do(http.MethodPost, "/login", url.Values{
		"username": {"alice"},
		"password": {"wrong-password"},
	})
	assert.Equal(s.T(), http.StatusUnauthorized, rec.Code, "failed login re-renders the form")
	assert.Contains(s.T(), rec.Body.String(), "Invalid username or password")
}

func (s *ServerTestSuite) TestLogoutClearsSession() {
	s.signUp("alice", "password1")

	rec := s.do(http.MethodGet, "/logout", nil)
	require.Equal(s.T(), http.StatusSeeOther, rec.Code)
	assert.Equal(s.T(), "/login", rec.Header().Get("Location"))

	var cleared bool
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "tasktally_session" && cookie.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(s.T(), cleared, "logout must expire the session cookie")
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}
