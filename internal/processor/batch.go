// Package processor runs batch evaluations and replays the dead-letter queue.
package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	infralogger "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/quality-engine/infrastructure/ratelimit"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
)

const defaultConcurrency = 10

// ErrEmptyItem marks a nil entry in a batch.
var ErrEmptyItem = errors.New("batch item is empty")

// Evaluator produces a decision for one submission.
type Evaluator interface {
	Evaluate(ctx context.Context, content *domain.ContentInput) (*domain.QualityDecision, error)
}

// BatchObserver records batch sizes and skipped items.
type BatchObserver interface {
	ObserveBatch(size, dropped int)
}

// BatchResult is the outcome for one item, at the same index as its input.
type BatchResult struct {
	ContentID string
	Decision  *domain.QualityDecision
	Err       error
}

// BatchEvaluator evaluates many submissions with a fixed worker pool,
// throttled by a shared rate limiter.
type BatchEvaluator struct {
	evaluator   Evaluator
	concurrency int
	limiter     *ratelimit.Limiter
	observer    BatchObserver
	logger      infralogger.Logger
}

// NewBatchEvaluator creates a batch evaluator. limiter and observer may be nil.
func NewBatchEvaluator(
	evaluator Evaluator,
	concurrency int,
	limiter *ratelimit.Limiter,
	observer BatchObserver,
	logger infralogger.Logger,
) *BatchEvaluator {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &BatchEvaluator{
		evaluator:   evaluator,
		concurrency: concurrency,
		limiter:     limiter,
		observer:    observer,
		logger:      logger,
	}
}

type batchJob struct {
	index   int
	content *domain.ContentInput
}

// Process evaluates every item and returns results in input order. Items not
// started before ctx ends carry ctx's error.
func (b *BatchEvaluator) Process(ctx context.Context, items []*domain.ContentInput) []BatchResult {
	results := make([]BatchResult, len(items))
	if len(items) == 0 {
		return results
	}

	b.logger.Info("Starting batch evaluation",
		infralogger.Int("batch_size", len(items)),
		infralogger.Int("concurrency", b.concurrency),
	)
	startTime := time.Now()

	jobs := make(chan batchJob, len(items))
	for i, item := range items {
		jobs <- batchJob{index: i, content: item}
	}
	close(jobs)

	var wg sync.WaitGroup
	for i := range min(b.concurrency, len(items)) {
		wg.Add(1)
		go b.worker(ctx, i, jobs, results, &wg)
	}
	wg.Wait()

	var failed, dropped int
	for i := range results {
		if results[i].Err == nil {
			continue
		}
		failed++
		if results[i].Decision == nil && ctx.Err() != nil {
			dropped++
		}
	}
	if b.observer != nil {
		b.observer.ObserveBatch(len(items), dropped)
	}

	duration := time.Since(startTime)
	b.logger.Info("Batch evaluation complete",
		infralogger.Int("total", len(items)),
		infralogger.Int("success", len(items)-failed),
		infralogger.Int("errors", failed),
		infralogger.Int64("duration_ms", duration.Milliseconds()),
	)

	return results
}

// worker writes only to the result slots of the jobs it takes.
func (b *BatchEvaluator) worker(
	ctx context.Context,
	id int,
	jobs <-chan batchJob,
	results []BatchResult,
	wg *sync.WaitGroup,
) {
	defer wg.Done()

	for job := range jobs {
		results[job.index] = b.evaluate(ctx, id, job.content)
	}
}

func (b *BatchEvaluator) evaluate(ctx context.Context, workerID int, content *domain.ContentInput) BatchResult {
	result := BatchResult{}
	if content == nil {
		result.Err = ErrEmptyItem
		return result
	}
	result.ContentID = content.ID

	if err := ctx.Err(); err != nil {
		result.Err = fmt.Errorf("batch cancelled: %w", err)
		return result
	}
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			result.Err = err
			return result
		}
	}

	decision, err := b.evaluator.Evaluate(ctx, content)
	if err != nil {
		b.logger.Warn("Batch item failed",
			infralogger.Int("worker_id", workerID),
			infralogger.String("content_id", content.ID),
			infralogger.Error(err),
		)
		result.Err = fmt.Errorf("evaluate %s: %w", content.ID, err)
		return result
	}

	result.Decision = decision
	return result
}
