package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	httpHandlers "github.com/tasktally/core/internal/adapters/http"
	"github.com/tasktally/core/internal/adapters/repository"
	"github.com/tasktally/core/internal/application/services"
	"github.com/tasktally/core/internal/infrastructure/config"
	"github.com/tasktally/core/internal/infrastructure/database"
	"github.com/tasktally/core/internal/infrastructure/logger"
	"github.com/tasktally/core/internal/ports"
)

// Server represents the HTTP server
type Server struct {
	echo   *echo.Echo
	config *config.Config
	logger *logger.Logger
	db     *database.DB
}

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New creates a new server instance
func New(cfg *config.Config, db *database.DB, appLogger *logger.Logger) (*Server, error) {
	e := echo.New()

	e.Validator = &CustomValidator{validator: validator.New()}
	e.HideBanner = true
	e.HidePort = true

	renderer, err := httpHandlers.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("initialize renderer: %w", err)
	}
	e.Renderer = renderer

	e.HTTPErrorHandler = customErrorHandler(appLogger)

	// Initialize repositories, one per storage partition
	userRepo := repository.NewUserRepository(db.Users)
	taskRepo := repository.NewTaskRepository(db.Tasks)
	spendingRepo := repository.NewSpendingRepository(db.Spending)

	// Initialize services
	serviceLogger := appLogger.WithComponent("services")
	var authService ports.AuthService = services.NewAuthService(userRepo, cfg.Session, serviceLogger)
	var taskService ports.TaskService = services.NewTaskService(taskRepo, serviceLogger)
	var spendingService ports.SpendingService = services.NewSpendingService(spendingRepo, serviceLogger)

	// Initialize handlers
	handlerLogger := appLogger.WithComponent("http")
	authHandler := httpHandlers.NewAuthHandler(authService, cfg.Session, handlerLogger)
	dashboardHandler := httpHandlers.NewDashboardHandler(taskService, spendingService, authService, handlerLogger)
	spendingHandler := httpHandlers.NewSpendingHandler(spendingService, handlerLogger)

	server := &Server{
		echo:   e,
		config: cfg,
		logger: appLogger,
		db:     db,
	}

	server.setupMiddleware()
	server.setupRoutes(authHandler, dashboardHandler, spendingHandler, authService)

	if cfg.Metrics.Enabled {
		server.setupMetrics()
	}

	return server, nil
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		LogRemoteIP: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", values.Method,
				"uri", values.URI,
				"status", values.Status,
				"latency_ms", float64(values.Latency.Nanoseconds()) / 1000000,
				"remote_ip", values.RemoteIP,
			}

			if values.Error != nil {
				fields = append(fields, "error", values.Error.Error())
				s.logger.Errorw("HTTP request failed", fields...)
			} else {
				s.logger.Infow("HTTP request", fields...)
			}

			return nil
		},
	}))

	s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(s.config.Security.RateLimitRequests),
				Burst:     s.config.Security.RateLimitRequests,
				ExpiresIn: s.config.Security.RateLimitWindow,
			},
		),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.String(http.StatusForbidden, "rate limit exceeded")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.String(http.StatusTooManyRequests, "rate limit exceeded")
		},
	}))

	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
	}))

	s.echo.Use(middleware.RequestID())
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(authHandler *httpHandlers.AuthHandler, dashboardHandler *httpHandlers.DashboardHandler, spendingHandler *httpHandlers.SpendingHandler, authService ports.AuthService) {
	// Probes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	// Public auth pages
	s.echo.GET("/register", authHandler.RegisterPage)
	s.echo.POST("/register", authHandler.Register)
	s.echo.GET("/login", authHandler.LoginPage)
	s.echo.POST("/login", authHandler.Login)

	// Owner-scoped pages
	app := s.echo.Group("", s.sessionMiddleware(authService))
	app.GET("/", dashboardHandler.Dashboard)
	app.POST("/", dashboardHandler.CreateTask)
	app.GET("/logout", authHandler.Logout)
	app.GET("/edit/:id", dashboardHandler.EditPage)
	app.POST("/edit/:id", dashboardHandler.Edit)
	app.POST("/delete/:type/", dashboardHandler.Delete)
	app.POST("/add_spending", spendingHandler.Add)
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics() {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	registry.MustRegister(requestsTotal, requestDuration)

	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start)
			status := c.Response().Status

			requestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				fmt.Sprintf("%d", status),
			).Inc()

			requestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(duration.Seconds())

			return err
		}
	})

	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	s.echo.GET("/metrics", echo.WrapHandler(metricsHandler))
}

// sessionMiddleware resolves the session cookie to a user id and stores it
// on the context. Requests without a valid session are redirected to the
// login page, never errored.
func (s *Server) sessionMiddleware(authService ports.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(s.config.Session.CookieName)
			if err != nil || cookie.Value == "" {
				return c.Redirect(http.StatusSeeOther, "/login")
			}

			userID, err := authService.ValidateSession(cookie.Value)
			if err != nil {
				s.logger.LogSecurityEvent("invalid_session", "", c.RealIP(), map[string]interface{}{
					"error": err.Error(),
				})
				return c.Redirect(http.StatusSeeOther, "/login")
			}

			c.Set(httpHandlers.UserContextKey, userID)

			return next(c)
		}
	}
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readinessCheck(c echo.Context) error {
	if err := s.db.HealthCheck(c.Request().Context()); err != nil {
		s.logger.Errorw("Readiness check failed", "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "database_not_ready",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Handler exposes the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.Infow("Starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Infow("Shutting down server")
	return s.echo.Shutdown(ctx)
}

// errorView is the data behind error.html.
type errorView struct {
	Status  int
	Message string
}

// customErrorHandler renders failures as an HTML error page. Internal
// details are logged, never shown.
func customErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		message := "Something went wrong."

		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if msg, ok := he.Message.(string); ok {
				message = msg
			} else {
				message = http.StatusText(code)
			}
		}

		if code == http.StatusInternalServerError {
			logger.WithError(err).Errorw("Internal server error", "path", c.Request().URL.Path)
			message = "Something went wrong."
		}

		if c.Response().Committed {
			return
		}

		if c.Request().Method == http.MethodHead {
			if err := c.NoContent(code); err != nil {
				logger.Errorw("Error sending response", "error", err)
			}
			return
		}

		if renderErr := c.Render(code, "error.html", errorView{Status: code, Message: message}); renderErr != nil {
			logger.Errorw("Error rendering error page", "error", renderErr)
			_ = c.String(code, message)
		}
	}
}
