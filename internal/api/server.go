package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	infragin "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/gin"
	infralogger "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/quality-engine/infrastructure/metrics"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/config"
)

const (
	defaultReadTimeout  = 30 * time.Second
	defaultWriteTimeout = 60 * time.Second
	defaultIdleTimeout  = 120 * time.Second
)

// ServerOptions carries what the server needs besides the handler.
type ServerOptions struct {
	Metrics      http.Handler
	HTTPMetrics  *metrics.HTTPMetrics
	HealthChecks map[string]infragin.HealthChecker
}

// NewServer creates the HTTP server using the infrastructure gin package.
func NewServer(handler *Handler, cfg *config.Config, opts ServerOptions, log infralogger.Logger) *infragin.Server {
	builder := infragin.NewServerBuilder(cfg.Service.Name, cfg.Service.Port).
		WithLogger(log).
		WithDebug(cfg.Service.Debug).
		WithVersion(cfg.Service.Version).
		WithCORSOrigins(cfg.Service.CORSOrigins).
		WithTimeouts(defaultReadTimeout, defaultWriteTimeout, defaultIdleTimeout).
		WithRoutes(func(router *gin.Engine) {
			if opts.HTTPMetrics != nil {
				router.Use(opts.HTTPMetrics.Middleware())
			}
			if opts.Metrics != nil {
				router.GET("/metrics", gin.WrapH(opts.Metrics))
			}
			SetupServiceRoutes(router, handler, cfg.Auth.JWTSecret)
		})
	for name, check := range opts.HealthChecks {
		builder = builder.WithHealthCheck(name, check)
	}
	return builder.Build()
}

// SetupServiceRoutes mounts the /api/v1 routes. Health routes are added by
// the server builder.
func SetupServiceRoutes(router *gin.Engine, handler *Handler, jwtSecret string) {
	v1 := infragin.ProtectedGroup(router, "/api/v1", jwtSecret)

	evaluate := v1.Group("/evaluate")
	evaluate.POST("", handler.Evaluate)            // POST /api/v1/evaluate
	evaluate.POST("/batch", handler.EvaluateBatch) // POST /api/v1/evaluate/batch

	decisions := v1.Group("/decisions")
	decisions.GET("/search", handler.SearchDecisions)  // GET /api/v1/decisions/search
	decisions.GET("/:content_id", handler.GetDecision) // GET /api/v1/decisions/:content_id

	rules := v1.Group("/rules")
	rules.GET("", handler.ListRules)           // GET /api/v1/rules
	rules.POST("", handler.CreateRule)         // POST /api/v1/rules
	rules.POST("/reload", handler.ReloadRules) // POST /api/v1/rules/reload
	rules.GET("/:id", handler.GetRule)         // GET /api/v1/rules/:id
	rules.PUT("/:id", handler.UpdateRule)      // PUT /api/v1/rules/:id
	rules.DELETE("/:id", handler.DeleteRule)   // DELETE /api/v1/rules/:id

	thresholds := v1.Group("/thresholds")
	thresholds.GET("/:content_type", handler.GetThresholds)    // GET /api/v1/thresholds/:content_type
	thresholds.PUT("/:content_type", handler.UpdateThresholds) // PUT /api/v1/thresholds/:content_type

	v1.GET("/sources", handler.ListSources)              // GET /api/v1/sources
	v1.GET("/duplicates/clusters", handler.ListClusters) // GET /api/v1/duplicates/clusters
	v1.GET("/stats", handler.GetStats)                   // GET /api/v1/stats
}
