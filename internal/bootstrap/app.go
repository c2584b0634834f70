// Package bootstrap handles application initialization and lifecycle management
// for the quality-engine service.
package bootstrap

import (
	"context"
	"fmt"

	infracontext "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/context"
	infralogger "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/quality-engine/infrastructure/profiling"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/processor"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/storage"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/telemetry"
)

// Start initializes and runs the quality-engine service until it receives
// SIGINT or SIGTERM.
func Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Phase 1: Load config and create logger
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := CreateLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting Quality Engine",
		infralogger.String("name", cfg.Service.Name),
		infralogger.String("version", cfg.Service.Version),
		infralogger.Int("port", cfg.Service.Port),
	)

	// Optional pprof and continuous profiling
	profilers, err := profiling.Start(cfg.Profiling, cfg.Service.Name, cfg.Service.Version, log)
	if err != nil {
		log.Warn("Continuous profiling unavailable", infralogger.Error(err))
	}
	defer profilers.Stop()

	// Phase 2: Setup database
	db, err := SetupDatabase(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to setup database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("Failed to close database connection", infralogger.Error(closeErr))
		}
	}()
	repos := NewRepositories(db)

	// Phase 3: Setup optional Redis and Elasticsearch
	redisClient := SetupRedis(ctx, cfg, log)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}
	fingerprints := NewFingerprintStore(cfg, redisClient, repos)

	esClient, index, err := SetupDecisionIndex(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to setup elasticsearch: %w", err)
	}

	// Phase 4: Telemetry and the asynchronous writer
	tp := telemetry.NewProvider()
	targets := storage.WriterTargets{
		Decisions:    repos.Decisions,
		Fingerprints: fingerprints,
		DeadLetters:  repos.DeadLetters,
		Observer:     tp,
	}
	if index != nil {
		targets.Index = index
	}
	writer := storage.NewDecisionWriter(storage.WriterConfig{
		QueueSize:    cfg.Persistence.QueueSize,
		Workers:      cfg.Persistence.Workers,
		WriteTimeout: cfg.Persistence.WriteTimeout,
	}, targets, log)
	writer.Start()
	defer func() {
		closeCtx, closeCancel := infracontext.WithShutdownTimeout()
		defer closeCancel()
		if closeErr := writer.Close(closeCtx); closeErr != nil {
			log.Error("Failed to drain decision writer", infralogger.Error(closeErr))
		}
	}()

	// Phase 5: Engine and scheduled rule reloads
	components := BuildEngine(cfg, EngineOptions{
		Rules:           repos.Rules,
		Sources:         repos.Sources,
		Fingerprints:    fingerprints,
		DecisionSink:    writer,
		FingerprintSink: writer,
		Observer:        tp,
		Tracer:          tp.Tracer,
	}, log)
	if startErr := components.Refresher.Start(ctx); startErr != nil {
		return fmt.Errorf("failed to start rule refresher: %w", startErr)
	}
	defer components.Refresher.Stop()

	// Phase 6: Dead-letter replay
	dlq := processor.NewDLQConsumer(repos.DeadLetters, writer, tp, processor.DLQConfig{
		Schedule:  cfg.Persistence.DLQSchedule,
		BatchSize: cfg.Persistence.DLQBatchSize,
	}, log)
	if startErr := dlq.Start(ctx); startErr != nil {
		return fmt.Errorf("failed to start dead-letter consumer: %w", startErr)
	}
	defer dlq.Stop()

	// Phase 7: Setup and run HTTP server
	server := SetupHTTPServer(cfg, ServerDeps{
		DB:        db,
		Redis:     redisClient,
		ES:        esClient,
		Index:     index,
		Repos:     repos,
		Engine:    components,
		Telemetry: tp,
	}, log)

	if runErr := server.RunWithGracefulShutdown(ctx); runErr != nil {
		log.Error("Server error", infralogger.Error(runErr))
		return fmt.Errorf("server error: %w", runErr)
	}

	log.Info("Quality Engine stopped")
	return nil
}
