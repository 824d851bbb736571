package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/ITensEI/HCGateway/docs"
	"github.com/ITensEI/HCGateway/internal/api/handler"
	"github.com/ITensEI/HCGateway/internal/api/middleware"
	"github.com/ITensEI/HCGateway/internal/core/ports"
)

// APIPrefix is the path prefix of every versioned route.
const APIPrefix = "/api/v2"

// maxBodySize bounds request bodies. Sync batches from the mobile client can
// carry several thousand samples.
const maxBodySize = "16M"

// Deps holds everything the router needs to build its handlers.
type Deps struct {
	Sessions      ports.SessionService
	Sync          ports.SyncService
	Notifications ports.NotificationService
	// Probes are pinged by /health/ready, keyed by dependency name.
	Probes map[string]handler.Pinger
	// Registry receives the HTTP metrics. Nil means the default registry.
	Registry *prometheus.Registry
	Log      zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if deps.Registry != nil {
		registerer, gatherer = deps.Registry, deps.Registry
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echomiddleware.BodyLimit(maxBodySize))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "hcgateway",
		Subsystem:  "http",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Handlers ---
	sessionHandler := handler.NewSessionHandler(deps.Sessions)
	syncHandler := handler.NewSyncHandler(deps.Sync)
	pushHandler := handler.NewPushHandler(deps.Notifications)
	auth := middleware.Auth(deps.Sessions)

	v2 := e.Group(APIPrefix)

	// --- Session routes (no auth required) ---
	v2.POST("/login", sessionHandler.Login)
	v2.POST("/refresh", sessionHandler.Refresh)
	v2.DELETE("/revoke", sessionHandler.Revoke)

	// --- Record routes ---
	v2.POST("/sync/:method", syncHandler.Upsert, auth)
	v2.DELETE("/sync/:method", syncHandler.Delete, auth)
	v2.POST("/fetch/:method", syncHandler.Fetch, auth)

	// --- Device routes ---
	v2.PUT("/push/:method", pushHandler.Push, auth)
	v2.DELETE("/delete/:method", pushHandler.RequestDelete, auth)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Probes)

	e.GET("/health", healthHandler.Liveness)           // liveness: is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness: are dependencies up?

	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}
