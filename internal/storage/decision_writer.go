package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonesrussell/north-cloud/quality-engine/infrastructure/circuitbreaker"
	infralogger "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/quality-engine/infrastructure/retry"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
)

const (
	defaultQueueSize     = 1000
	defaultWriterWorkers = 4
	defaultWriteTimeout  = 10 * time.Second
	overflowTimeout      = 2 * time.Second

	indexBreakerFailures = 5
	indexBreakerTimeout  = 30 * time.Second
)

// DecisionStore is the durable decision store.
type DecisionStore interface {
	UpsertDecision(ctx context.Context, d *domain.QualityDecision) error
}

// DecisionIndexer writes decision documents to the search index.
type DecisionIndexer interface {
	IndexDecision(ctx context.Context, contentID string, doc []byte) error
}

// FingerprintWriter persists fingerprints.
type FingerprintWriter interface {
	StoreFingerprint(ctx context.Context, fp *domain.Fingerprint) error
}

// DeadLetterQueue accepts writes that exhausted their retries.
type DeadLetterQueue interface {
	Enqueue(ctx context.Context, entry *domain.DeadLetterEntry) error
}

// WriteObserver records write outcomes.
type WriteObserver interface {
	ObserveWrite(target domain.WriteTarget, err error)
	ObserveDeadLetter(target domain.WriteTarget)
}

type nopWriteObserver struct{}

func (nopWriteObserver) ObserveWrite(domain.WriteTarget, error) {}
func (nopWriteObserver) ObserveDeadLetter(domain.WriteTarget)   {}

// WriterConfig configures the DecisionWriter.
type WriterConfig struct {
	QueueSize    int
	Workers      int
	WriteTimeout time.Duration
	Retry        retry.Config
}

func (c *WriterConfig) setDefaults() {
	if c.QueueSize <= 0 {
		c.QueueSize = defaultQueueSize
	}
	if c.Workers <= 0 {
		c.Workers = defaultWriterWorkers
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry = retry.DefaultConfig()
	}
}

// WriterTargets are the stores a DecisionWriter fans out to. Nil targets are skipped.
type WriterTargets struct {
	Decisions    DecisionStore
	Index        DecisionIndexer
	Fingerprints FingerprintWriter
	DeadLetters  DeadLetterQueue
	Observer     WriteObserver
}

type writeJob struct {
	target    domain.WriteTarget
	contentID string
	payload   []byte
}

// DecisionWriter persists decisions and fingerprints off the request path.
// Documents are marshaled at submit time, so later mutation by the caller is
// never observed. Each write is retried, then handed to the dead-letter queue.
type DecisionWriter struct {
	config  WriterConfig
	targets WriterTargets
	breaker *circuitbreaker.Breaker
	logger  infralogger.Logger

	mu       sync.RWMutex
	closed   bool
	jobs     chan writeJob
	overflow chan writeJob
	dropped  atomic.Int64
	wg       sync.WaitGroup
}

// NewDecisionWriter creates a writer; call Start to launch its workers.
func NewDecisionWriter(cfg WriterConfig, targets WriterTargets, logger infralogger.Logger) *DecisionWriter {
	cfg.setDefaults()
	if targets.Observer == nil {
		targets.Observer = nopWriteObserver{}
	}
	return &DecisionWriter{
		config:  cfg,
		targets: targets,
		breaker: circuitbreaker.New(circuitbreaker.Config{
			Name:             "decision-index",
			FailureThreshold: indexBreakerFailures,
			Timeout:          indexBreakerTimeout,
			OnStateChange: func(name string, from, to circuitbreaker.State) {
				logger.Warn("Circuit breaker state changed",
					infralogger.String("breaker", name),
					infralogger.String("from", from.String()),
					infralogger.String("to", to.String()),
				)
			},
		}),
		logger:   logger,
		jobs:     make(chan writeJob, cfg.QueueSize),
		overflow: make(chan writeJob, cfg.QueueSize),
	}
}

// Start launches the worker goroutines and the overflow goroutine. They exit
// once Close drains the queues.
func (w *DecisionWriter) Start() {
	for i := range w.config.Workers {
		w.wg.Add(1)
		go w.worker(i)
	}
	w.wg.Add(1)
	go w.drainOverflow()
	w.logger.Info("Decision writer started",
		infralogger.Int("workers", w.config.Workers),
		infralogger.Int("queue_size", w.config.QueueSize),
	)
}

// SubmitDecision queues the decision for the store and the index.
func (w *DecisionWriter) SubmitDecision(d *domain.QualityDecision) {
	doc, err := json.Marshal(d)
	if err != nil {
		w.logger.Error("Failed to marshal decision",
			infralogger.String("content_id", d.ContentID),
			infralogger.Error(err),
		)
		return
	}
	if w.targets.Decisions != nil {
		w.enqueue(writeJob{target: domain.TargetDecisionStore, contentID: d.ContentID, payload: doc})
	}
	if w.targets.Index != nil {
		w.enqueue(writeJob{target: domain.TargetDecisionIndex, contentID: d.ContentID, payload: doc})
	}
}

// SubmitFingerprint queues a fingerprint write.
func (w *DecisionWriter) SubmitFingerprint(fp *domain.Fingerprint) {
	if w.targets.Fingerprints == nil {
		return
	}
	doc, err := json.Marshal(fp)
	if err != nil {
		w.logger.Error("Failed to marshal fingerprint",
			infralogger.String("content_id", fp.ContentID),
			infralogger.Error(err),
		)
		return
	}
	w.enqueue(writeJob{target: domain.TargetFingerprint, contentID: fp.ContentID, payload: doc})
}

// enqueue never blocks while the writer is open. A full queue hands the job to
// the overflow goroutine, which parks it in the dead-letter queue; when that is
// full too the write is dropped and counted.
func (w *DecisionWriter) enqueue(job writeJob) {
	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		ctx, cancel := context.WithTimeout(context.Background(), overflowTimeout)
		defer cancel()
		w.deadLetter(ctx, job, errors.New("writer closed"))
		return
	}
	defer w.mu.RUnlock()

	select {
	case w.jobs <- job:
		return
	default:
	}

	select {
	case w.overflow <- job:
	default:
		w.dropped.Add(1)
		w.logger.Error("Dropping write, write and overflow queues full",
			infralogger.String("target", string(job.target)),
			infralogger.String("content_id", job.contentID),
		)
	}
}

func (w *DecisionWriter) drainOverflow() {
	defer w.wg.Done()

	for job := range w.overflow {
		ctx, cancel := context.WithTimeout(context.Background(), overflowTimeout)
		w.deadLetter(ctx, job, errors.New("write queue full"))
		cancel()
	}
}

// Dropped returns the number of writes lost because both queues were full.
func (w *DecisionWriter) Dropped() int64 {
	return w.dropped.Load()
}

// Pending returns the number of queued writes.
func (w *DecisionWriter) Pending() int {
	return len(w.jobs)
}

func (w *DecisionWriter) worker(id int) {
	defer w.wg.Done()

	for job := range w.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), w.config.WriteTimeout)
		err := retry.Retry(ctx, w.config.Retry, func() error {
			return w.write(ctx, job.target, job.payload)
		})
		w.targets.Observer.ObserveWrite(job.target, err)
		if err != nil {
			w.logger.Warn("Write failed, moving to dead-letter queue",
				infralogger.Int("worker", id),
				infralogger.String("target", string(job.target)),
				infralogger.String("content_id", job.contentID),
				infralogger.Error(err),
			)
			w.deadLetter(ctx, job, err)
		}
		cancel()
	}
}

// Replay writes a dead-lettered payload to its target once, without retries.
func (w *DecisionWriter) Replay(ctx context.Context, entry *domain.DeadLetterEntry) error {
	err := w.write(ctx, entry.Target, entry.Payload)
	w.targets.Observer.ObserveWrite(entry.Target, err)
	return err
}

func (w *DecisionWriter) write(ctx context.Context, target domain.WriteTarget, payload []byte) error {
	switch target {
	case domain.TargetDecisionStore:
		if w.targets.Decisions == nil {
			return errors.New("no decision store configured")
		}
		var d domain.QualityDecision
		if err := json.Unmarshal(payload, &d); err != nil {
			return fmt.Errorf("decode decision: %w", err)
		}
		return w.targets.Decisions.UpsertDecision(ctx, &d)
	case domain.TargetDecisionIndex:
		if w.targets.Index == nil {
			return errors.New("no decision index configured")
		}
		var head struct {
			ContentID string `json:"content_id"`
		}
		if err := json.Unmarshal(payload, &head); err != nil {
			return fmt.Errorf("decode decision: %w", err)
		}
		return w.breaker.Execute(ctx, func() error {
			return w.targets.Index.IndexDecision(ctx, head.ContentID, payload)
		})
	case domain.TargetFingerprint:
		if w.targets.Fingerprints == nil {
			return errors.New("no fingerprint store configured")
		}
		var fp domain.Fingerprint
		if err := json.Unmarshal(payload, &fp); err != nil {
			return fmt.Errorf("decode fingerprint: %w", err)
		}
		return w.targets.Fingerprints.StoreFingerprint(ctx, &fp)
	default:
		return fmt.Errorf("unknown write target %q", target)
	}
}

func (w *DecisionWriter) deadLetter(ctx context.Context, job writeJob, cause error) {
	if w.targets.DeadLetters == nil {
		w.logger.Error("Dropping failed write, no dead-letter queue configured",
			infralogger.String("target", string(job.target)),
			infralogger.String("content_id", job.contentID),
			infralogger.Error(cause),
		)
		return
	}

	entry, err := domain.NewDeadLetterEntry(job.contentID, job.target, job.payload, cause)
	if err == nil {
		// the write context may already be spent on retries
		dlqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), overflowTimeout)
		err = w.targets.DeadLetters.Enqueue(dlqCtx, entry)
		cancel()
	}
	if err != nil {
		w.logger.Error("Failed to enqueue dead letter",
			infralogger.String("target", string(job.target)),
			infralogger.String("content_id", job.contentID),
			infralogger.Error(err),
		)
		return
	}
	w.targets.Observer.ObserveDeadLetter(job.target)
}

// Close stops accepting writes and waits for queued writes to finish or ctx to end.
func (w *DecisionWriter) Close(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.jobs)
	close(w.overflow)
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("Decision writer drained")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("decision writer drain: %w", ctx.Err())
	}
}
