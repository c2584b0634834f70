package gin

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/north-cloud/quality-engine/infrastructure/jwt"
	"github.com/jonesrussell/north-cloud/quality-engine/infrastructure/logger"
)

// ServerBuilder assembles a Server fluently.
type ServerBuilder struct {
	config      *Config
	logger      logger.Logger
	setupRoutes func(*gin.Engine)
	checks      map[string]HealthChecker
}

// NewServerBuilder starts a builder for serviceName listening on port.
func NewServerBuilder(serviceName string, port int) *ServerBuilder {
	return &ServerBuilder{
		config: &Config{Port: port, ServiceName: serviceName, CORS: CORSConfig{Enabled: true}},
		checks: make(map[string]HealthChecker),
	}
}

func (b *ServerBuilder) WithLogger(log logger.Logger) *ServerBuilder {
	b.logger = log
	return b
}

func (b *ServerBuilder) WithDebug(debug bool) *ServerBuilder {
	b.config.Debug = debug
	return b
}

func (b *ServerBuilder) WithVersion(version string) *ServerBuilder {
	b.config.ServiceVersion = version
	return b
}

func (b *ServerBuilder) WithCORSOrigins(origins []string) *ServerBuilder {
	b.config.CORS.AllowedOrigins = origins
	return b
}

func (b *ServerBuilder) WithTimeouts(read, write, idle time.Duration) *ServerBuilder {
	b.config.ReadTimeout = read
	b.config.WriteTimeout = write
	b.config.IdleTimeout = idle
	return b
}

// WithHealthCheck registers a named dependency check on /health.
func (b *ServerBuilder) WithHealthCheck(name string, check HealthChecker) *ServerBuilder {
	b.checks[name] = check
	return b
}

func (b *ServerBuilder) WithRoutes(setup func(*gin.Engine)) *ServerBuilder {
	b.setupRoutes = setup
	return b
}

// Build creates the Server. Health routes are mounted before service routes.
func (b *ServerBuilder) Build() *Server {
	if b.logger == nil {
		b.logger = logger.NewNop()
	}
	b.config.SetDefaults()

	return newServer(b.config, b.logger, func(router *gin.Engine) {
		RegisterHealthRoutes(router, b.config, b.checks)
		if b.setupRoutes != nil {
			b.setupRoutes(router)
		}
	})
}

// ProtectedGroup returns a group guarded by JWT when jwtSecret is set.
// An empty secret leaves the group open, which is how local runs work.
func ProtectedGroup(router *gin.Engine, path, jwtSecret string) *gin.RouterGroup {
	group := router.Group(path)
	if jwtSecret != "" {
		group.Use(jwt.Middleware(jwtSecret))
	}
	return group
}
