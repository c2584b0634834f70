package processor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	infralogger "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
)

const (
	defaultDLQSchedule  = "@every 1m"
	defaultDLQBatchSize = 50
	dlqSweepTimeout     = 45 * time.Second
)

// DeadLetterStore is the persistence side of the dead-letter queue.
type DeadLetterStore interface {
	FetchRetryable(ctx context.Context, limit int) ([]domain.DeadLetterEntry, error)
	Remove(ctx context.Context, id string) error
	UpdateRetry(ctx context.Context, entry *domain.DeadLetterEntry) error
	GetStats(ctx context.Context) (*domain.DLQStats, error)
}

// Replayer writes a dead-lettered payload to its original target.
type Replayer interface {
	Replay(ctx context.Context, entry *domain.DeadLetterEntry) error
}

// DLQObserver records replay outcomes and queue depth.
type DLQObserver interface {
	ObserveReplay(succeeded, exhausted bool)
	ObserveDLQDepth(pending int64)
}

// DLQConfig configures the consumer.
type DLQConfig struct {
	Schedule  string
	BatchSize int
}

// SweepResult summarizes one sweep.
type SweepResult struct {
	Replayed  int
	Failed    int
	Exhausted int
}

// DLQConsumer periodically replays due dead letters.
type DLQConsumer struct {
	store    DeadLetterStore
	replayer Replayer
	observer DLQObserver
	config   DLQConfig
	logger   infralogger.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

// NewDLQConsumer creates a consumer. observer may be nil.
func NewDLQConsumer(
	store DeadLetterStore,
	replayer Replayer,
	observer DLQObserver,
	cfg DLQConfig,
	logger infralogger.Logger,
) *DLQConsumer {
	if cfg.Schedule == "" {
		cfg.Schedule = defaultDLQSchedule
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultDLQBatchSize
	}
	return &DLQConsumer{
		store:    store,
		replayer: replayer,
		observer: observer,
		config:   cfg,
		logger:   logger,
	}
}

// Start schedules sweeps until Stop is called or ctx ends.
func (c *DLQConsumer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cron != nil {
		return nil
	}

	scheduler := cron.New()
	_, err := scheduler.AddFunc(c.config.Schedule, func() {
		sweepCtx, cancel := context.WithTimeout(ctx, dlqSweepTimeout)
		defer cancel()
		if _, sweepErr := c.Sweep(sweepCtx); sweepErr != nil {
			c.logger.Error("Dead-letter sweep failed", infralogger.Error(sweepErr))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule dead-letter sweep %q: %w", c.config.Schedule, err)
	}

	scheduler.Start()
	c.cron = scheduler
	c.logger.Info("Dead-letter consumer started",
		infralogger.String("schedule", c.config.Schedule),
		infralogger.Int("batch_size", c.config.BatchSize),
	)
	return nil
}

// Stop halts scheduling and waits for a running sweep.
func (c *DLQConsumer) Stop() {
	c.mu.Lock()
	scheduler := c.cron
	c.cron = nil
	c.mu.Unlock()

	if scheduler != nil {
		<-scheduler.Stop().Done()
		c.logger.Info("Dead-letter consumer stopped")
	}
}

// Sweep replays one batch of due entries.
func (c *DLQConsumer) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	entries, err := c.store.FetchRetryable(ctx, c.config.BatchSize)
	if err != nil {
		return result, fmt.Errorf("fetch dead letters: %w", err)
	}

	for i := range entries {
		entry := &entries[i]
		replayErr := c.replayer.Replay(ctx, entry)
		if replayErr == nil {
			if err = c.store.Remove(ctx, entry.ID); err != nil {
				c.logger.Warn("Replayed dead letter could not be removed",
					infralogger.String("id", entry.ID),
					infralogger.Error(err),
				)
			}
			result.Replayed++
			c.observe(true, false)
			continue
		}

		entry.IncrementRetry(replayErr)
		exhausted := !entry.ShouldRetry()
		result.Failed++
		if exhausted {
			result.Exhausted++
			c.logger.Error("Dead letter exhausted its retries",
				infralogger.String("content_id", entry.ContentID),
				infralogger.String("target", string(entry.Target)),
				infralogger.Int("retries", entry.RetryCount),
				infralogger.Error(replayErr),
			)
		}
		if err = c.store.UpdateRetry(ctx, entry); err != nil {
			c.logger.Warn("Failed to record dead-letter retry",
				infralogger.String("id", entry.ID),
				infralogger.Error(err),
			)
		}
		c.observe(false, exhausted)
	}

	if stats, statsErr := c.store.GetStats(ctx); statsErr == nil && c.observer != nil {
		c.observer.ObserveDLQDepth(stats.Pending)
	}

	if len(entries) > 0 {
		c.logger.Info("Dead-letter sweep complete",
			infralogger.Int("replayed", result.Replayed),
			infralogger.Int("failed", result.Failed),
			infralogger.Int("exhausted", result.Exhausted),
		)
	}
	return result, nil
}

func (c *DLQConsumer) observe(succeeded, exhausted bool) {
	if c.observer != nil {
		c.observer.ObserveReplay(succeeded, exhausted)
	}
}
