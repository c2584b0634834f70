package bootstrap

import (
	"context"
	"fmt"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	infragin "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/gin"
	infralogger "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/quality-engine/infrastructure/metrics"
	"github.com/jonesrussell/north-cloud/quality-engine/infrastructure/ratelimit"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/api"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/config"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/processor"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/storage"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/telemetry"
)

// ServerDeps are the components the HTTP server exposes.
type ServerDeps struct {
	DB        *sqlx.DB
	Redis     *redis.Client
	ES        *es.Client
	Index     *storage.DecisionIndex
	Repos     *Repositories
	Engine    *EngineComponents
	Telemetry *telemetry.Provider
}

// SetupHTTPServer creates and configures the HTTP server.
func SetupHTTPServer(cfg *config.Config, deps ServerDeps, log infralogger.Logger) *infragin.Server {
	limiter := ratelimit.New(cfg.Persistence.BatchRPS, 0, log)
	batch := processor.NewBatchEvaluator(
		deps.Engine.Engine, cfg.Persistence.BatchConcurrency, limiter, deps.Telemetry, log,
	)

	handlerDeps := api.Deps{
		Evaluator:    deps.Engine.Engine,
		Batch:        batch,
		Rules:        deps.Repos.Rules,
		Registry:     deps.Engine.Registry,
		Reloader:     deps.Engine.Refresher,
		Thresholds:   deps.Repos.Rules,
		Decisions:    deps.Repos.Decisions,
		Sources:      deps.Engine.Sources,
		Clusters:     deps.Engine.Detector,
		DeadLetters:  deps.Repos.DeadLetters,
		MaxBatchSize: cfg.Persistence.MaxBatchSize,
	}
	if deps.Index != nil {
		handlerDeps.Search = deps.Index
	}
	handler := api.NewHandler(handlerDeps, log)

	return api.NewServer(handler, cfg, api.ServerOptions{
		Metrics:      deps.Telemetry.Handler(),
		HTTPMetrics:  metrics.NewHTTPMetrics(deps.Telemetry.Registerer(), "quality_engine"),
		HealthChecks: healthChecks(deps),
	}, log)
}

func healthChecks(deps ServerDeps) map[string]infragin.HealthChecker {
	checks := map[string]infragin.HealthChecker{
		"postgres": infragin.PingChecker(deps.DB.PingContext, true),
	}
	if deps.Redis != nil {
		checks["redis"] = infragin.PingChecker(func(ctx context.Context) error {
			return deps.Redis.Ping(ctx).Err()
		}, false)
	}
	if deps.ES != nil {
		checks["elasticsearch"] = infragin.PingChecker(func(ctx context.Context) error {
			return pingElasticsearch(ctx, deps.ES)
		}, false)
	}
	return checks
}

func pingElasticsearch(ctx context.Context, client *es.Client) error {
	res, err := client.Ping(client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: %s", res.Status())
	}
	return nil
}
