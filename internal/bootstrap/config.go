package bootstrap

import (
	"flag"
	"fmt"

	infraconfig "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/config"
	infralogger "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/config"
)

// LoadConfig loads configuration. Uses -config flag with infraconfig default.
func LoadConfig() (*config.Config, error) {
	configPath := flag.String("config", infraconfig.GetConfigPath("config.yml"), "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// CreateLogger creates a logger instance from configuration.
func CreateLogger(cfg *config.Config) (infralogger.Logger, error) {
	logCfg := cfg.Logging
	logCfg.Service = cfg.Service.Name
	if cfg.Service.Debug {
		logCfg.Development = true
	}
	log, err := infralogger.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(infralogger.String("version", cfg.Service.Version)), nil
}
