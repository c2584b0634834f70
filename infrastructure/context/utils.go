// Package context provides timeout helpers shared by the service's storage clients.
package context

import (
	"context"
	"time"
)

const (
	// DefaultShutdownTimeout bounds graceful shutdown of background workers.
	DefaultShutdownTimeout = 10 * time.Second

	// DefaultPingTimeout bounds connectivity checks against Postgres, Redis and Elasticsearch.
	DefaultPingTimeout = 5 * time.Second
)

// WithShutdownTimeout creates a context with the default shutdown timeout.
func WithShutdownTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), DefaultShutdownTimeout)
}

// WithPingTimeout creates a context with the default ping timeout.
func WithPingTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), DefaultPingTimeout)
}

// WithPingTimeoutFrom derives a ping-bounded context from parent.
func WithPingTimeoutFrom(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultPingTimeout)
}
