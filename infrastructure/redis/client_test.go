package redis_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/jonesrussell/north-cloud/quality-engine/infrastructure/redis"
)

func TestNewClient_RequiresAddress(t *testing.T) {
	t.Parallel()

	client, err := redis.NewClient(context.Background(), redis.Config{})
	if !errors.Is(err, redis.ErrEmptyAddress) {
		t.Errorf("NewClient() error = %v, want ErrEmptyAddress", err)
	}
	if client != nil {
		t.Error("expected nil client for invalid config")
	}
}

func TestNewClient_Connects(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)

	client, err := redis.NewClient(context.Background(), redis.Config{Address: mr.Addr()})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer func() { _ = client.Close() }()

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		t.Errorf("ping failed: %v", pingErr)
	}
}

func TestNewClient_UnreachableServer(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := redis.NewClient(context.Background(), redis.Config{Address: addr}); err == nil {
		t.Error("expected ping error for a closed server")
	}
}

func TestConfig_Options(t *testing.T) {
	t.Parallel()

	opts := redis.Config{
		Address:     "cache:6379",
		DB:          2,
		PoolSize:    20,
		DialTimeout: time.Second,
	}.Options()

	if opts.Addr != "cache:6379" || opts.DB != 2 || opts.PoolSize != 20 || opts.DialTimeout != time.Second {
		t.Errorf("Options() = %+v", opts)
	}
	if opts.ReadTimeout != 0 {
		t.Errorf("ReadTimeout = %v, want go-redis default (0)", opts.ReadTimeout)
	}
}
