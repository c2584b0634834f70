package profiling

import (
	"fmt"
	"os"
	"runtime"

	"github.com/grafana/pyroscope-go"

	infralogger "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/logger"
)

// PyroscopeProfiler wraps a running Pyroscope profiler.
type PyroscopeProfiler struct {
	profiler *pyroscope.Profiler
}

// StartPyroscope starts continuous profiling. It returns nil, nil when
// continuous profiling is disabled.
func StartPyroscope(cfg Config, serviceName, version string, log infralogger.Logger) (*PyroscopeProfiler, error) {
	if !cfg.PyroscopeEnabled {
		return nil, nil
	}
	cfg.SetDefaults()

	if version == "" {
		version = "unknown"
	}

	pcfg := pyroscope.Config{
		ApplicationName: "north-cloud." + serviceName,
		ServerAddress:   cfg.PyroscopeURL,
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
		Tags: map[string]string{
			"environment": cfg.Environment,
			"version":     version,
			"hostname":    hostname(),
			"go_version":  runtime.Version(),
		},
	}

	profiler, err := pyroscope.Start(pcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to start Pyroscope profiler: %w", err)
	}

	log.Info("Pyroscope continuous profiling started",
		infralogger.String("application", pcfg.ApplicationName),
		infralogger.String("server", cfg.PyroscopeURL),
		infralogger.String("environment", cfg.Environment),
	)
	return &PyroscopeProfiler{profiler: profiler}, nil
}

// Stop flushes and stops the profiler. Safe on a nil receiver.
func (p *PyroscopeProfiler) Stop() error {
	if p == nil || p.profiler == nil {
		return nil
	}
	return p.profiler.Stop()
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return name
}
