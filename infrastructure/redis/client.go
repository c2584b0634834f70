// Package redis builds the go-redis client backing the fingerprint store.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	infracontext "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/context"
)

// Config holds Redis connection configuration. Zero pool and timeout values
// keep the go-redis defaults.
type Config struct {
	Address      string        `env:"REDIS_ADDRESS"   yaml:"address"`
	Password     string        `env:"REDIS_PASSWORD"  yaml:"password"` //nolint:gosec // Redis credentials
	DB           int           `env:"REDIS_DB"        yaml:"db"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" yaml:"pool_size"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// ErrEmptyAddress is returned when Redis address is not configured.
var ErrEmptyAddress = errors.New("redis address is required")

// Options converts cfg to go-redis options.
func (c Config) Options() *redis.Options {
	return &redis.Options{
		Addr:         c.Address,
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
	}
}

// NewClient creates a client and pings it, bounded by the ping timeout
// derived from ctx.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyAddress
	}

	client := redis.NewClient(cfg.Options())

	pingCtx, cancel := infracontext.WithPingTimeoutFrom(ctx)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Address, err)
	}

	return client, nil
}
