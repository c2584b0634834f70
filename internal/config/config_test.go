package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/quality-engine/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)

	assert.Equal(t, "quality-engine", cfg.Service.Name)
	assert.Equal(t, 8075, cfg.Service.Port)
	assert.Equal(t, "quality_engine", cfg.Database.Database)
	assert.Equal(t, "5432", cfg.Database.Connection().Port)
	assert.Equal(t, "quality_decisions", cfg.Elasticsearch.DecisionIndex)
	assert.Equal(t, "quality:fp", cfg.Redis.KeyPrefix)
	assert.Equal(t, 10*time.Second, cfg.Engine.EvaluationTimeout)
	assert.True(t, cfg.Engine.DefaultRulesEnabled())
	assert.InDelta(t, 0.70, cfg.Duplicate.SimilarityThreshold, 1e-9)
	assert.Equal(t, "@every 1m", cfg.Persistence.DLQSchedule)
	assert.Equal(t, 100, cfg.Persistence.MaxBatchSize)
}

func TestLoad_YAMLAndEnvironment(t *testing.T) {
	path := writeConfig(t, `
service:
  port: 9000
elasticsearch:
  enabled: true
  url: http://es:9200
  decision_index: decisions_v2
redis:
  enabled: true
  address: redis:6379
engine:
  refresh_schedule: "@every 30s"
  use_default_rules: false
duplicate:
  similarity_threshold: 0.75
`)
	t.Setenv("QUALITY_ENGINE_PORT", "9100")
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("EVALUATION_TIMEOUT", "3s")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Service.Port)
	assert.Equal(t, "http://es:9200", cfg.Elasticsearch.URL)
	assert.Equal(t, "decisions_v2", cfg.Elasticsearch.DecisionIndex)
	assert.Equal(t, "redis:6379", cfg.Redis.Address)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, 3*time.Second, cfg.Engine.EvaluationTimeout)
	assert.Equal(t, "@every 30s", cfg.Engine.RefreshSchedule)
	assert.False(t, cfg.Engine.DefaultRulesEnabled())
	assert.InDelta(t, 0.75, cfg.Duplicate.SimilarityThreshold, 1e-9)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"similarity above one", "duplicate:\n  similarity_threshold: 1.5\n"},
		{"similarity above near tier", "duplicate:\n  similarity_threshold: 0.9\n"},
		{"bad log level", "logging:\n  level: loud\n"},
		{"port out of range", "service:\n  port: 70000\n"},
		{"negative workers", "persistence:\n  workers: -2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestDefault_Validates(t *testing.T) {
	t.Parallel()

	require.NoError(t, config.Default().Validate())
}
