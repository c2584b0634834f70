// Package config loads the quality engine configuration.
package config

import (
	"errors"
	"strconv"
	"time"

	infraconfig "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/config"
	infraes "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/elasticsearch"
	infralogger "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/quality-engine/infrastructure/profiling"
	infraredis "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/redis"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/database"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/duplicate"
)

// Default configuration values.
const (
	defaultServiceName    = "quality-engine"
	defaultServiceVersion = "1.0.0"
	defaultServicePort    = 8075

	defaultDBHost    = "localhost"
	defaultDBPort    = 5432
	defaultDBUser    = "postgres"
	defaultDBName    = "quality_engine"
	defaultDBSSLMode = "disable"

	defaultESURL         = "http://localhost:9200"
	defaultDecisionIndex = "quality_decisions"

	defaultRedisAddress      = "localhost:6379"
	defaultFingerprintPrefix = "quality:fp"

	defaultLogLevel  = "info"
	defaultLogFormat = "json"

	defaultEvaluationTimeout = 10 * time.Second
	defaultRefreshSchedule   = "@every 5m"

	defaultSourceCacheSize    = 64
	defaultSourceCacheTTL     = 5 * time.Minute
	defaultLookupTimeout      = 5 * time.Second
	defaultLookupRPS          = 10
	defaultBreakerFailures    = 5
	defaultBreakerOpenTimeout = 30 * time.Second

	defaultSimilarityThreshold = duplicate.SimilarThreshold
	defaultCorpusLimit         = 500

	defaultQueueSize        = 1000
	defaultWriterWorkers    = 4
	defaultWriteTimeout     = 10 * time.Second
	defaultDLQSchedule      = "@every 1m"
	defaultDLQBatchSize     = 50
	defaultBatchConcurrency = 10
	defaultBatchRPS         = 50
	defaultMaxBatchSize     = 100
	defaultMigrationsPath   = "migrations"
)

// Config holds the quality engine configuration.
type Config struct {
	Service       ServiceConfig       `yaml:"service"`
	Database      DatabaseConfig      `yaml:"database"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	Redis         RedisConfig         `yaml:"redis"`
	Logging       infralogger.Config  `yaml:"logging"`
	Auth          AuthConfig          `yaml:"auth"`
	Engine        EngineConfig        `yaml:"engine"`
	FactCheck     FactCheckConfig     `yaml:"fact_check"`
	Duplicate     DuplicateConfig     `yaml:"duplicate"`
	Persistence   PersistenceConfig   `yaml:"persistence"`
	Profiling     profiling.Config    `yaml:"profiling"`
}

// ServiceConfig holds HTTP service settings.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Port    int    `env:"QUALITY_ENGINE_PORT" yaml:"port"`
	Debug   bool   `env:"APP_DEBUG"           yaml:"debug"`
	// CORSOrigins restricts browser origins; empty allows any.
	CORSOrigins []string `env:"CORS_ORIGINS" yaml:"cors_origins"`
}

// DatabaseConfig holds Postgres settings.
type DatabaseConfig struct {
	Host           string `env:"POSTGRES_QUALITY_HOST"     yaml:"host"`
	Port           int    `env:"POSTGRES_QUALITY_PORT"     yaml:"port"`
	User           string `env:"POSTGRES_QUALITY_USER"     yaml:"user"`
	Password       string `env:"POSTGRES_QUALITY_PASSWORD" yaml:"password"` //nolint:gosec // DB credentials
	Database       string `env:"POSTGRES_QUALITY_DB"       yaml:"database"`
	SSLMode        string `env:"POSTGRES_QUALITY_SSLMODE"  yaml:"sslmode"`
	MigrationsPath string `env:"MIGRATIONS_PATH"           yaml:"migrations_path"`
	AutoMigrate    bool   `env:"AUTO_MIGRATE"              yaml:"auto_migrate"`
}

// Connection converts the settings to a database.Config.
func (d DatabaseConfig) Connection() database.Config {
	return database.Config{
		Host:     d.Host,
		Port:     strconv.Itoa(d.Port),
		User:     d.User,
		Password: d.Password,
		DBName:   d.Database,
		SSLMode:  d.SSLMode,
	}
}

// ElasticsearchConfig adds the decision index to the client settings.
type ElasticsearchConfig struct {
	infraes.Config `yaml:",inline"`
	Enabled        bool   `env:"ELASTICSEARCH_ENABLED" yaml:"enabled"`
	DecisionIndex  string `yaml:"decision_index"`
}

// RedisConfig adds the fingerprint key prefix to the client settings.
type RedisConfig struct {
	infraredis.Config `yaml:",inline"`
	Enabled           bool   `env:"REDIS_ENABLED" yaml:"enabled"`
	KeyPrefix         string `yaml:"key_prefix"`
}

// AuthConfig holds JWT settings. An empty secret disables authentication.
type AuthConfig struct {
	JWTSecret string `env:"AUTH_JWT_SECRET" yaml:"jwt_secret"` //nolint:gosec // JWT secret
}

// EngineConfig tunes evaluation and rule reloads.
type EngineConfig struct {
	EvaluationTimeout time.Duration `env:"EVALUATION_TIMEOUT" yaml:"evaluation_timeout"`
	RefreshSchedule   string        `env:"RULE_REFRESH"       yaml:"refresh_schedule"`
	// UseDefaultRules installs the built-in rule pack when no rules are stored.
	UseDefaultRules *bool `yaml:"use_default_rules"`
}

// DefaultRulesEnabled reports whether the built-in rule pack may be used.
func (e EngineConfig) DefaultRulesEnabled() bool {
	return e.UseDefaultRules == nil || *e.UseDefaultRules
}

// FactCheckConfig configures trusted source access.
type FactCheckConfig struct {
	// LookupURL is the verification service; empty uses keyword matching only.
	LookupURL          string        `env:"FACT_CHECK_LOOKUP_URL" yaml:"lookup_url"`
	LookupTimeout      time.Duration `yaml:"lookup_timeout"`
	RequestsPerSecond  int           `yaml:"requests_per_second"`
	BreakerFailures    int           `yaml:"breaker_failures"`
	BreakerOpenTimeout time.Duration `yaml:"breaker_open_timeout"`
	SourceCacheSize    int           `yaml:"source_cache_size"`
	SourceCacheTTL     time.Duration `yaml:"source_cache_ttl"`
	SourceTypes        []string      `yaml:"source_types"`
}

// DuplicateConfig tunes duplicate detection.
type DuplicateConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	CorpusLimit         int     `yaml:"corpus_limit"`
}

// PersistenceConfig tunes the asynchronous writer, dead letters and batches.
type PersistenceConfig struct {
	QueueSize        int           `env:"WRITER_QUEUE_SIZE" yaml:"queue_size"`
	Workers          int           `env:"WRITER_WORKERS"    yaml:"workers"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	DLQSchedule      string        `env:"DLQ_SCHEDULE" yaml:"dlq_schedule"`
	DLQBatchSize     int           `yaml:"dlq_batch_size"`
	BatchConcurrency int           `env:"BATCH_CONCURRENCY" yaml:"batch_concurrency"`
	BatchRPS         int           `yaml:"batch_rps"`
	MaxBatchSize     int           `yaml:"max_batch_size"`
}

// Load loads configuration from the specified path.
func Load(path string) (*Config, error) {
	return infraconfig.LoadWithDefaults[Config](path, setDefaults)
}

// Default returns a configuration built from defaults alone.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setDatabaseDefaults(&cfg.Database)
	setElasticsearchDefaults(&cfg.Elasticsearch)
	setRedisDefaults(&cfg.Redis)
	setLoggingDefaults(&cfg.Logging)
	setEngineDefaults(&cfg.Engine)
	setFactCheckDefaults(&cfg.FactCheck)
	setDuplicateDefaults(&cfg.Duplicate)
	setPersistenceDefaults(&cfg.Persistence)
	cfg.Profiling.SetDefaults()
	// Auth has no defaults: an empty secret leaves the API open.
}

func setServiceDefaults(s *ServiceConfig) {
	if s.Name == "" {
		s.Name = defaultServiceName
	}
	if s.Version == "" {
		s.Version = defaultServiceVersion
	}
	if s.Port == 0 {
		s.Port = defaultServicePort
	}
}

func setDatabaseDefaults(d *DatabaseConfig) {
	if d.Host == "" {
		d.Host = defaultDBHost
	}
	if d.Port == 0 {
		d.Port = defaultDBPort
	}
	if d.User == "" {
		d.User = defaultDBUser
	}
	if d.Database == "" {
		d.Database = defaultDBName
	}
	if d.SSLMode == "" {
		d.SSLMode = defaultDBSSLMode
	}
	if d.MigrationsPath == "" {
		d.MigrationsPath = defaultMigrationsPath
	}
}

func setElasticsearchDefaults(e *ElasticsearchConfig) {
	if e.URL == "" {
		e.URL = defaultESURL
	}
	if e.DecisionIndex == "" {
		e.DecisionIndex = defaultDecisionIndex
	}
}

func setRedisDefaults(r *RedisConfig) {
	if r.Address == "" {
		r.Address = defaultRedisAddress
	}
	if r.KeyPrefix == "" {
		r.KeyPrefix = defaultFingerprintPrefix
	}
}

func setLoggingDefaults(l *infralogger.Config) {
	if l.Level == "" {
		l.Level = defaultLogLevel
	}
	if l.Format == "" {
		l.Format = defaultLogFormat
	}
}

func setEngineDefaults(e *EngineConfig) {
	if e.EvaluationTimeout == 0 {
		e.EvaluationTimeout = defaultEvaluationTimeout
	}
	if e.RefreshSchedule == "" {
		e.RefreshSchedule = defaultRefreshSchedule
	}
}

func setFactCheckDefaults(f *FactCheckConfig) {
	if f.LookupTimeout == 0 {
		f.LookupTimeout = defaultLookupTimeout
	}
	if f.RequestsPerSecond == 0 {
		f.RequestsPerSecond = defaultLookupRPS
	}
	if f.BreakerFailures == 0 {
		f.BreakerFailures = defaultBreakerFailures
	}
	if f.BreakerOpenTimeout == 0 {
		f.BreakerOpenTimeout = defaultBreakerOpenTimeout
	}
	if f.SourceCacheSize == 0 {
		f.SourceCacheSize = defaultSourceCacheSize
	}
	if f.SourceCacheTTL == 0 {
		f.SourceCacheTTL = defaultSourceCacheTTL
	}
}

func setDuplicateDefaults(d *DuplicateConfig) {
	if d.SimilarityThreshold == 0 {
		d.SimilarityThreshold = defaultSimilarityThreshold
	}
	if d.CorpusLimit == 0 {
		d.CorpusLimit = defaultCorpusLimit
	}
}

func setPersistenceDefaults(p *PersistenceConfig) {
	if p.QueueSize == 0 {
		p.QueueSize = defaultQueueSize
	}
	if p.Workers == 0 {
		p.Workers = defaultWriterWorkers
	}
	if p.WriteTimeout == 0 {
		p.WriteTimeout = defaultWriteTimeout
	}
	if p.DLQSchedule == "" {
		p.DLQSchedule = defaultDLQSchedule
	}
	if p.DLQBatchSize == 0 {
		p.DLQBatchSize = defaultDLQBatchSize
	}
	if p.BatchConcurrency == 0 {
		p.BatchConcurrency = defaultBatchConcurrency
	}
	if p.BatchRPS == 0 {
		p.BatchRPS = defaultBatchRPS
	}
	if p.MaxBatchSize == 0 {
		p.MaxBatchSize = defaultMaxBatchSize
	}
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	add(infraconfig.ValidatePort("service.port", c.Service.Port))
	add(infraconfig.ValidateRequired("database.host", c.Database.Host))
	add(infraconfig.ValidatePort("database.port", c.Database.Port))
	add(infraconfig.ValidateRequired("database.database", c.Database.Database))
	add(infraconfig.ValidateLogLevel(c.Logging.Level))
	// The similar tier sits below the near tier.
	add(infraconfig.ValidateRange("duplicate.similarity_threshold", c.Duplicate.SimilarityThreshold, 0, duplicate.NearThreshold))
	if c.Elasticsearch.Enabled {
		add(infraconfig.ValidateRequired("elasticsearch.url", c.Elasticsearch.URL))
	}
	if c.Redis.Enabled {
		add(infraconfig.ValidateRequired("redis.address", c.Redis.Address))
	}
	if c.Engine.EvaluationTimeout < 0 {
		add(&infraconfig.ValidationError{Field: "engine.evaluation_timeout", Message: "must not be negative"})
	}
	if c.Persistence.Workers < 1 {
		add(&infraconfig.ValidationError{Field: "persistence.workers", Message: "must be at least 1"})
	}

	return errors.Join(errs...)
}
