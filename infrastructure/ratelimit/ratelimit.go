// Package ratelimit throttles calls to shared collaborators.
package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/jonesrussell/north-cloud/quality-engine/infrastructure/logger"
)

const defaultRPS = 100

// Limiter is a token bucket limiter with logging.
type Limiter struct {
	limiter *rate.Limiter
	logger  logger.Logger
}

// New creates a Limiter allowing rps operations per second with the given
// burst. Non-positive rps defaults to 100 and burst to rps.
func New(rps, burst int, log logger.Logger) *Limiter {
	if rps <= 0 {
		rps = defaultRPS
	}
	if burst <= 0 {
		burst = rps
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		logger:  log,
	}
}

// Wait blocks until an operation is allowed or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		l.logger.Warn("Rate limiter wait failed", logger.Error(err))
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}

// Allow reports whether an operation may run now without waiting.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// SetLimit changes the rate.
func (l *Limiter) SetLimit(rps int) {
	l.limiter.SetLimit(rate.Limit(rps))
	l.logger.Info("Rate limit updated", logger.Int("rps", rps))
}
