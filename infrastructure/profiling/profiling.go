// Package profiling exposes pprof on a local port and optionally ships
// continuous profiles to Pyroscope.
package profiling

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"strconv"
	"time"

	infralogger "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/logger"
)

const (
	defaultPprofPort     = 6060
	defaultPyroscopeURL  = "http://pyroscope:4040"
	defaultEnvironment   = "development"
	pprofReadTimeout     = 10 * time.Second
	pprofWriteTimeout    = 60 * time.Second
	pprofShutdownTimeout = 5 * time.Second
)

// Config controls both profilers. Everything is off by default.
type Config struct {
	PprofEnabled     bool   `env:"ENABLE_PROFILING"            yaml:"pprof_enabled"`
	PprofPort        int    `env:"PPROF_PORT"                  yaml:"pprof_port"`
	PyroscopeEnabled bool   `env:"ENABLE_CONTINUOUS_PROFILING" yaml:"pyroscope_enabled"`
	PyroscopeURL     string `env:"PYROSCOPE_SERVER_URL"        yaml:"pyroscope_url"`
	Environment      string `env:"PYROSCOPE_ENVIRONMENT"       yaml:"environment"`
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.PprofPort == 0 {
		c.PprofPort = defaultPprofPort
	}
	if c.PyroscopeURL == "" {
		c.PyroscopeURL = defaultPyroscopeURL
	}
	if c.Environment == "" {
		c.Environment = defaultEnvironment
	}
}

// PprofServer serves the net/http/pprof handlers on localhost.
type PprofServer struct {
	server *http.Server
	log    infralogger.Logger
}

// NewPprofHandler returns a mux with the pprof endpoints under /debug/pprof/.
func NewPprofHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}

// StartPprof starts the pprof server in the background. It returns nil when
// pprof is disabled.
func StartPprof(cfg Config, log infralogger.Logger) *PprofServer {
	if !cfg.PprofEnabled {
		return nil
	}
	cfg.SetDefaults()

	addr := net.JoinHostPort("localhost", strconv.Itoa(cfg.PprofPort))
	p := &PprofServer{
		server: &http.Server{
			Addr:         addr,
			Handler:      NewPprofHandler(),
			ReadTimeout:  pprofReadTimeout,
			WriteTimeout: pprofWriteTimeout,
		},
		log: log,
	}

	go func() {
		log.Info("Starting pprof server", infralogger.String("address", addr))
		if err := p.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("pprof server failed", infralogger.Error(err))
		}
	}()
	return p
}

// Stop shuts the pprof server down. Safe on a nil receiver.
func (p *PprofServer) Stop() {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), pprofShutdownTimeout)
	defer cancel()
	if err := p.server.Shutdown(ctx); err != nil {
		p.log.Warn("pprof server shutdown", infralogger.Error(err))
	}
}

// Profilers bundles whatever profilers Start enabled.
type Profilers struct {
	pprof     *PprofServer
	pyroscope *PyroscopeProfiler
	log       infralogger.Logger
}

// Start launches pprof and Pyroscope according to cfg. A Pyroscope failure
// is returned; the pprof server keeps running in that case and Stop still
// releases it.
func Start(cfg Config, serviceName, version string, log infralogger.Logger) (*Profilers, error) {
	p := &Profilers{log: log}
	p.pprof = StartPprof(cfg, log)

	pyro, err := StartPyroscope(cfg, serviceName, version, log)
	if err != nil {
		return p, fmt.Errorf("pyroscope: %w", err)
	}
	p.pyroscope = pyro
	return p, nil
}

// Stop releases every running profiler.
func (p *Profilers) Stop() {
	if p == nil {
		return
	}
	p.pprof.Stop()
	if err := p.pyroscope.Stop(); err != nil {
		p.log.Warn("Failed to stop Pyroscope profiler", infralogger.Error(err))
	}
}
