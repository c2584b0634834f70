package gin

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	infracontext "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/context"
)

// HealthStatus is reported per check and overall.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

const healthCheckTimeout = 3 * time.Second

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  HealthStatus           `json:"status"`
	Service string                 `json:"service"`
	Version string                 `json:"version"`
	Uptime  string                 `json:"uptime"`
	Checks  map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is the outcome of one dependency check.
type CheckResult struct {
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
	Latency string       `json:"latency,omitempty"`
}

// HealthChecker probes one dependency.
type HealthChecker func(ctx context.Context) CheckResult

// PingChecker wraps a ping function. A failing critical dependency makes the
// service unhealthy; a failing optional one only degrades it.
func PingChecker(ping func(ctx context.Context) error, critical bool) HealthChecker {
	return func(ctx context.Context) CheckResult {
		pingCtx, cancel := infracontext.WithPingTimeoutFrom(ctx)
		defer cancel()

		start := time.Now()
		err := ping(pingCtx)
		latency := time.Since(start).Round(time.Microsecond).String()
		if err == nil {
			return CheckResult{Status: HealthStatusHealthy, Latency: latency}
		}
		status := HealthStatusDegraded
		if critical {
			status = HealthStatusUnhealthy
		}
		return CheckResult{Status: status, Message: err.Error(), Latency: latency}
	}
}

// RegisterHealthRoutes mounts GET and HEAD /health.
func RegisterHealthRoutes(router *gin.Engine, cfg *Config, checks map[string]HealthChecker) {
	started := time.Now()

	router.HEAD("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/health", func(c *gin.Context) {
		resp := HealthResponse{
			Status:  HealthStatusHealthy,
			Service: cfg.ServiceName,
			Version: cfg.ServiceVersion,
			Uptime:  time.Since(started).Round(time.Second).String(),
		}

		if len(checks) > 0 {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
			defer cancel()

			resp.Checks = make(map[string]CheckResult, len(checks))
			for name, check := range checks {
				result := check(ctx)
				resp.Checks[name] = result
				switch {
				case result.Status == HealthStatusUnhealthy:
					resp.Status = HealthStatusUnhealthy
				case result.Status == HealthStatusDegraded && resp.Status == HealthStatusHealthy:
					resp.Status = HealthStatusDegraded
				}
			}
		}

		code := http.StatusOK
		if resp.Status == HealthStatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, resp)
	})
}
