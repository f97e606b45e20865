package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/bgi/launchpad-auth/internal/api/handler"
	"github.com/bgi/launchpad-auth/internal/api/middleware"
	"github.com/bgi/launchpad-auth/internal/core/policy"
	"github.com/bgi/launchpad-auth/internal/core/ports"
)

// Dependencies is everything the router composes into the request pipeline.
type Dependencies struct {
	AuthService ports.AuthService
	Tokens      ports.TokenVerifier
	Identities  ports.IdentityFinder
	// Policy defaults to policy.Default().
	Policy *policy.Policy
	// Checks are pinged by the readiness probe, keyed by dependency name.
	Checks         map[string]handler.Pinger
	AllowedOrigins []string
	// Registry receives the HTTP metrics and is served at /metrics. Nil
	// disables both.
	Registry *prometheus.Registry
	Log      zerolog.Logger
	Clock    func() time.Time
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log, deps.Clock)

	accessPolicy := deps.Policy
	if accessPolicy == nil {
		accessPolicy = policy.Default()
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: deps.AllowedOrigins,
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodDelete, http.MethodPatch, http.MethodOptions,
		},
		AllowCredentials: true,
		MaxAge:           3600,
	}))
	if deps.Registry != nil {
		e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Subsystem:  "http",
			Registerer: deps.Registry,
		}))
	}

	// --- Request interceptor, then the access decision ---
	e.Use(middleware.Authenticate(deps.Tokens, deps.Identities, deps.Log))
	e.Use(middleware.Enforce(accessPolicy, deps.Log))

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.AuthService)
	auth := e.Group("/api/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.GET("/me", authHandler.Me)

	// --- Health probes (public in every policy shipped) ---
	healthHandler := handler.NewHealthHandler(deps.Checks)
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)

	// --- Operational endpoints ---
	if deps.Registry != nil {
		e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
			Gatherer: deps.Registry,
		}))
	}
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger emits one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Status >= http.StatusInternalServerError {
				evt = log.Error()
			}
			evt.
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("path", v.URIPath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}
