package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/servimarket/session-service/internal/api/docs"
	"github.com/servimarket/session-service/internal/api/handler"
	"github.com/servimarket/session-service/internal/api/middleware"
	"github.com/servimarket/session-service/internal/core/domain"
	"github.com/servimarket/session-service/internal/core/ports"
)

// Deps is everything the HTTP surface needs from the composition root.
type Deps struct {
	Session   ports.SessionService
	Tokens    ports.TokenIssuer
	Catalog   ports.IdentityCatalog
	JWTSecret string
	// Readiness names the backends pinged by /health/ready.
	Readiness map[string]handler.Pinger
	Log       zerolog.Logger
	// Registry receives the HTTP metrics and backs /metrics. Nil means the
	// default Prometheus registry.
	Registry  *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.Registry != nil {
		registerer, gatherer = d.Registry, d.Registry
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "http",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Session routes ---
	sessionHandler := handler.NewSessionHandler(d.Session, d.Tokens)
	auth := middleware.Auth(d.JWTSecret)
	v1 := e.Group("/v1")
	v1.POST("/session/login", sessionHandler.Login)
	v1.POST("/session/register", sessionHandler.Register)

	// Reading or changing the current session requires its token.
	session := v1.Group("/session", auth)
	session.GET("", sessionHandler.Current)
	session.DELETE("", sessionHandler.Logout)
	session.PATCH("/profile", sessionHandler.UpdateProfile)

	// --- Catalog (admin only) ---
	catalogHandler := handler.NewCatalogHandler(d.Catalog)
	catalog := v1.Group("/catalog", auth, middleware.RBAC(domain.RoleAdmin))
	catalog.GET("/:email", catalogHandler.Get)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler(d.Readiness)
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)

	// --- Ops ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
