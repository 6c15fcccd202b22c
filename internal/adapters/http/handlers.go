package http

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/tasktally/core/internal/domain/entities"
	"github.com/tasktally/core/internal/infrastructure/config"
	"github.com/tasktally/core/internal/infrastructure/logger"
	"github.com/tasktally/core/internal/ports"
)

// UserContextKey is where the session middleware stores the authenticated
// user id on the echo context.
const UserContextKey = "user_id"

// AuthHandler handles registration, login and logout pages.
type AuthHandler struct {
	authService ports.AuthService
	sessionCfg  config.SessionConfig
	logger      *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService ports.AuthService, sessionCfg config.SessionConfig, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessionCfg:  sessionCfg,
		logger:      logger,
	}
}

// authView carries form state back into the register/login templates.
type authView struct {
	Username string
	Error    string
}

// RegisterPage renders the registration form.
func (h *AuthHandler) RegisterPage(c echo.Context) error {
	return c.Render(http.StatusOK, "register.html", authView{})
}

// Register creates an account and sends the user to the login form.
func (h *AuthHandler) Register(c echo.Context) error {
	var req ports.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return c.Render(http.StatusBadRequest, "register.html", authView{
			Username: req.Username,
			Error:    "Username must be 3-50 characters and password at least 8.",
		})
	}

	_, err := h.authService.Register(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, entities.ErrUsernameTaken) {
			return c.Render(http.StatusConflict, "register.html", authView{
				Username: req.Username,
				Error:    "That username is already taken.",
			})
		}
		h.logger.Errorw("Registration failed", "error", err, "username", req.Username)
		return err
	}

	return c.Redirect(http.StatusSeeOther, "/login")
}

// LoginPage renders the login form.
func (h *AuthHandler) LoginPage(c echo.Context) error {
	return c.Render(http.StatusOK, "login.html", authView{})
}

// Login verifies credentials and establishes the session cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	var req ports.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return c.Render(http.StatusBadRequest, "login.html", authView{
			Username: req.Username,
			Error:    "Username and password are required.",
		})
	}

	user, err := h.authService.Login(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, entities.ErrInvalidCredentials) {
			return c.Render(http.StatusUnauthorized, "login.html", authView{
				Username: req.Username,
				Error:    "Invalid username or password.",
			})
		}
		h.logger.Errorw("Login failed", "error", err, "username", req.Username)
		return err
	}

	token, err := h.authService.IssueSession(user)
	if err != nil {
		h.logger.Errorw("Session issue failed", "error", err, "user_id", user.ID)
		return err
	}

	c.SetCookie(h.sessionCookie(token, time.Now().Add(h.sessionCfg.TTL)))

	return c.Redirect(http.StatusSeeOther, "/")
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	cookie := h.sessionCookie("", time.Unix(0, 0))
	cookie.MaxAge = -1
	c.SetCookie(cookie)

	return c.Redirect(http.StatusSeeOther, "/login")
}

func (h *AuthHandler) sessionCookie(token string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     h.sessionCfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.sessionCfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Utility functions

func currentUserID(c echo.Context) uuid.UUID {
	if id, ok := c.Get(UserContextKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// domainError translates sentinel errors into HTTP failures; anything
// unrecognized bubbles up to the generic 500 handler so internal details
// never reach the client.
func domainError(err error) error {
	switch {
	case errors.Is(err, entities.ErrTaskNotFound),
		errors.Is(err, entities.ErrSpendingNotFound),
		errors.Is(err, entities.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	case errors.Is(err, entities.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusForbidden, "Forbidden")
	default:
		return err
	}
}

// dashboardURL builds the dashboard path with the period filter preserved
// and an optional user-facing message.
func dashboardURL(month, year int, message string) string {
	q := url.Values{}
	q.Set("filter_month", strconv.Itoa(month))
	q.Set("filter_year", strconv.Itoa(year))
	if message != "" {
		q.Set("err", message)
	}
	return "/?" + q.Encode()
}
