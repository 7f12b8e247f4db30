package http

import (
	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-harvester/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-harvester/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quote-harvester/internal/platform/config"
	"github.com/jsamuelsen/quote-harvester/internal/platform/telemetry"
)

// RouterConfig contains configuration for setting up the router.
type RouterConfig struct {
	// ServiceName names the server spans.
	ServiceName string

	// HealthHandler serves the /-/ endpoints. Optional.
	HealthHandler *handlers.HealthHandler

	// SnapshotHandler serves /api/v1/snapshots. Optional.
	SnapshotHandler *handlers.SnapshotHandler

	// Server supplies the per-request timeout.
	Server *config.ServerConfig
}

// SetupRouter configures all routes and middleware on the Gin engine.
// Middleware is applied in the following order (first to last):
//  1. Recovery - catch panics first
//  2. Request ID - generate/extract request ID
//  3. Correlation ID - propagate the caller's transaction ID
//  4. OpenTelemetry - tracing and metrics
//  5. Logging - request logging (skips /-/ endpoints)
//  6. Timeout - request deadline on /api/v1 only
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.CorrelationID(),
		telemetry.TracingMiddleware(cfg.ServiceName),
		telemetry.Middleware(),
		middleware.Logging(),
	)

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutesOnEngine(engine)
	}

	apiV1 := engine.Group("/api/v1")
	if cfg.Server != nil && cfg.Server.RequestTimeout > 0 {
		apiV1.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	}

	if cfg.SnapshotHandler != nil {
		cfg.SnapshotHandler.RegisterSnapshotRoutes(apiV1)
	}
}
