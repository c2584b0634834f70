package bootstrap

import (
	"context"
	"fmt"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"

	infraes "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/elasticsearch"
	infralogger "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/logger"
	infraredis "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/redis"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/config"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/duplicate"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/storage"
)

// SetupRedis connects to Redis when enabled. A nil client means fingerprints
// are stored in Postgres.
func SetupRedis(ctx context.Context, cfg *config.Config, log infralogger.Logger) *redis.Client {
	if !cfg.Redis.Enabled {
		log.Info("Redis disabled, fingerprints stored in Postgres")
		return nil
	}

	client, err := infraredis.NewClient(ctx, cfg.Redis.Config)
	if err != nil {
		log.Warn("Redis not available, fingerprints stored in Postgres",
			infralogger.String("address", cfg.Redis.Address),
			infralogger.Error(err),
		)
		return nil
	}

	log.Info("Redis fingerprint store initialized",
		infralogger.String("address", cfg.Redis.Address),
		infralogger.String("prefix", cfg.Redis.KeyPrefix),
	)
	return client
}

// NewFingerprintStore returns the Redis store when client is set, otherwise
// the Postgres repository.
func NewFingerprintStore(cfg *config.Config, client *redis.Client, repos *Repositories) duplicate.FingerprintStore {
	if client == nil {
		return repos.Fingerprints
	}
	return storage.NewRedisFingerprintStore(client, cfg.Redis.KeyPrefix)
}

// SetupDecisionIndex connects to Elasticsearch and ensures the decision index
// exists. It returns nil when search is disabled.
func SetupDecisionIndex(ctx context.Context, cfg *config.Config, log infralogger.Logger) (*es.Client, *storage.DecisionIndex, error) {
	if !cfg.Elasticsearch.Enabled {
		log.Info("Elasticsearch disabled, decision search unavailable")
		return nil, nil, nil
	}

	client, err := infraes.NewClient(ctx, cfg.Elasticsearch.Config, log)
	if err != nil {
		return nil, nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	index := storage.NewDecisionIndex(client, cfg.Elasticsearch.DecisionIndex)
	if ensureErr := index.EnsureIndex(ctx); ensureErr != nil {
		return nil, nil, fmt.Errorf("ensure decision index: %w", ensureErr)
	}

	log.Info("Decision index ready", infralogger.String("index", cfg.Elasticsearch.DecisionIndex))
	return client, index, nil
}
