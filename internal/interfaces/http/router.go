// Package http assembles the gin route tree and the HTTP server.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/propshield/climarisk/internal/infrastructure/monitoring/logging"
	"github.com/propshield/climarisk/internal/infrastructure/monitoring/prometheus"
	"github.com/propshield/climarisk/internal/interfaces/http/handlers"
	"github.com/propshield/climarisk/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and middleware dependencies of the
// route tree.
type RouterConfig struct {
	AssessmentHandler *handlers.AssessmentHandler
	HealthHandler     *handlers.HealthHandler

	CORS *middleware.CORSConfig

	Logger     logging.Logger
	Metrics    *prometheus.AppMetrics
	MetricsAPI http.Handler

	// Mode is the gin mode ("debug", "release", "test").
	Mode string
}

// NewRouter constructs the complete route tree.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	r.Use(middleware.Logging(cfg.Logger, cfg.Metrics))

	// Probes and metrics stay outside the versioned API.
	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsAPI != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsAPI))
	}

	api := r.Group("/api/v1")
	if cfg.AssessmentHandler != nil {
		api.POST("/assessments", cfg.AssessmentHandler.Create)
		api.GET("/assessments/:propertyId", cfg.AssessmentHandler.Get)
		api.GET("/assessments/:propertyId/history", cfg.AssessmentHandler.History)
		api.GET("/stats", cfg.AssessmentHandler.Stats)
	}

	return r
}
