// Package rules evaluates administrator-authored quality rules over the
// combined output of the content checks and reaches a publication decision.
package rules

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	infralogger "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
)

const (
	defaultEvaluationTimeout = 10 * time.Second
	tracerName               = "quality-engine/rules"

	checkAssessment = "assessment"
	checkModeration = "moderation"
	checkDuplicate  = "duplicate"
	checkFactCheck  = "fact_check"
)

// Assessor scores content quality.
type Assessor interface {
	Assess(ctx context.Context, content *domain.ContentInput, thresholds domain.QualityThresholds) (*domain.AssessmentResult, error)
}

// Moderator classifies content safety.
type Moderator interface {
	Moderate(ctx context.Context, content *domain.ContentInput) (*domain.ModerationResult, error)
}

// DuplicateChecker compares content with stored fingerprints.
type DuplicateChecker interface {
	Check(ctx context.Context, content *domain.ContentInput) (*domain.DuplicateResult, error)
}

// FactChecker verifies factual claims.
type FactChecker interface {
	Verify(ctx context.Context, content *domain.ContentInput) (*domain.FactCheckResult, error)
}

// DecisionSink accepts decisions to persist asynchronously. Submit must not block.
type DecisionSink interface {
	SubmitDecision(d *domain.QualityDecision)
}

// Observer receives evaluation telemetry.
type Observer interface {
	ObserveDecision(d *domain.QualityDecision, elapsed time.Duration)
	ObserveCheck(check string, elapsed time.Duration, err error)
	ObserveSnapshot(version int64, rules int)
}

type nopObserver struct{}

func (nopObserver) ObserveDecision(*domain.QualityDecision, time.Duration) {}
func (nopObserver) ObserveCheck(string, time.Duration, error)              {}
func (nopObserver) ObserveSnapshot(int64, int)                             {}

// Config tunes the engine.
type Config struct {
	EvaluationTimeout time.Duration
}

// Deps are the engine collaborators. Sink, Observer and Tracer are optional.
type Deps struct {
	Assessor   Assessor
	Moderator  Moderator
	Duplicates DuplicateChecker
	Facts      FactChecker
	Sink       DecisionSink
	Observer   Observer
	Tracer     trace.Tracer
}

// Engine runs the four checks concurrently and applies the current rule snapshot.
type Engine struct {
	deps     Deps
	snapshot atomic.Pointer[Snapshot]
	config   Config
	stats    *statsCollector
	logger   infralogger.Logger
	now      func() time.Time
}

// NewEngine creates an Engine without a snapshot. Until Swap is called every
// evaluation is routed to manual review.
func NewEngine(deps Deps, cfg Config, logger infralogger.Logger) *Engine {
	if cfg.EvaluationTimeout <= 0 {
		cfg.EvaluationTimeout = defaultEvaluationTimeout
	}
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}
	if deps.Tracer == nil {
		deps.Tracer = otel.Tracer(tracerName)
	}
	return &Engine{
		deps:   deps,
		config: cfg,
		stats:  newStatsCollector(),
		logger: logger,
		now:    time.Now,
	}
}

// Swap installs snap and returns the previous snapshot.
func (e *Engine) Swap(snap *Snapshot) *Snapshot {
	prev := e.snapshot.Swap(snap)
	if snap != nil {
		e.deps.Observer.ObserveSnapshot(snap.Version(), snap.Len())
		e.logger.Info("Rule snapshot installed",
			infralogger.Int64("version", snap.Version()),
			infralogger.Int("rules", snap.Len()),
		)
	}
	return prev
}

// Snapshot returns the current snapshot, or nil.
func (e *Engine) Snapshot() *Snapshot {
	return e.snapshot.Load()
}

// Stats returns evaluation counters.
func (e *Engine) Stats() Stats {
	s := e.stats.snapshot()
	if snap := e.snapshot.Load(); snap != nil {
		s.SnapshotVersion = snap.Version()
		s.ActiveRules = snap.Len()
	}
	return s
}

type subResults struct {
	assessment *domain.AssessmentResult
	moderation *domain.ModerationResult
	duplicate  *domain.DuplicateResult
	factCheck  *domain.FactCheckResult
}

// Evaluate validates content, runs the checks and decides. Invalid content is
// the only error besides cancellation of ctx; systemic failures produce a
// manual_review decision with a warning.
func (e *Engine) Evaluate(ctx context.Context, content *domain.ContentInput) (*domain.QualityDecision, error) {
	if err := content.Validate(); err != nil {
		return nil, err
	}

	start := e.now()
	ctx, span := e.deps.Tracer.Start(ctx, "rules.Evaluate", trace.WithAttributes(
		attribute.String("content_id", content.ID),
		attribute.String("content_type", string(content.Type())),
	))
	defer span.End()

	snap := e.snapshot.Load()
	if snap == nil {
		e.logger.Warn("Evaluating without rule snapshot", infralogger.String("content_id", content.ID))
		d := failClosed(content, domain.ErrNoSnapshot.Error()+"; routed to manual review")
		return e.finish(span, d, start, 0), nil
	}

	sub, err := e.runChecks(ctx, content, snap.Thresholds(content.Type()))
	if err != nil {
		if ctx.Err() != nil && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			span.SetStatus(codes.Error, "cancelled")
			return nil, fmt.Errorf("evaluate %s: %w", content.ID, ctx.Err())
		}
		e.logger.Warn("Evaluation failed closed",
			infralogger.String("content_id", content.ID),
			infralogger.Error(err),
		)
		span.RecordError(err)
		d := failClosed(content, failureWarning(err, e.config.EvaluationTimeout))
		return e.finish(span, d, start, snap.Version()), nil
	}

	ec := &EvalContext{
		Content:    content,
		Assessment: sub.assessment,
		Moderation: sub.moderation,
		Duplicate:  sub.duplicate,
		FactCheck:  sub.factCheck,
	}
	d := Decide(DecisionInput{
		Content:     content,
		Assessment:  sub.assessment,
		Moderation:  sub.moderation,
		Duplicate:   sub.duplicate,
		FactCheck:   sub.factCheck,
		RuleResults: snap.Evaluate(ec),
	})
	return e.finish(span, d, start, snap.Version()), nil
}

// runChecks runs the four checks under the evaluation timeout. It returns as
// soon as the timeout fires even when a check ignores its context.
func (e *Engine) runChecks(
	ctx context.Context,
	content *domain.ContentInput,
	thresholds domain.QualityThresholds,
) (subResults, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.EvaluationTimeout)
	defer cancel()

	var sub subResults
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := observe(gctx, e, checkAssessment, func(c context.Context) (*domain.AssessmentResult, error) {
			return e.deps.Assessor.Assess(c, content, thresholds)
		})
		sub.assessment = r
		return err
	})
	g.Go(func() error {
		r, err := observe(gctx, e, checkModeration, func(c context.Context) (*domain.ModerationResult, error) {
			return e.deps.Moderator.Moderate(c, content)
		})
		sub.moderation = r
		return err
	})
	g.Go(func() error {
		r, err := observe(gctx, e, checkDuplicate, func(c context.Context) (*domain.DuplicateResult, error) {
			return e.deps.Duplicates.Check(c, content)
		})
		sub.duplicate = r
		return err
	})
	g.Go(func() error {
		r, err := observe(gctx, e, checkFactCheck, func(c context.Context) (*domain.FactCheckResult, error) {
			return e.deps.Facts.Verify(c, content)
		})
		sub.factCheck = r
		return err
	})

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			return subResults{}, err
		}
		return sub, nil
	case <-ctx.Done():
		return subResults{}, fmt.Errorf("checks did not finish: %w", ctx.Err())
	}
}

// observe runs one check inside a span and reports its duration.
func observe[T any](ctx context.Context, e *Engine, check string, run func(context.Context) (*T, error)) (*T, error) {
	ctx, span := e.deps.Tracer.Start(ctx, "rules.check."+check)
	defer span.End()

	start := e.now()
	r, err := run(ctx)
	e.deps.Observer.ObserveCheck(check, e.now().Sub(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%s: %w", check, err)
	}
	return r, nil
}

func failureWarning(err error, timeout time.Duration) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("Evaluation timed out after %v; routed to manual review", timeout)
	}
	return fmt.Sprintf("Evaluation incomplete (%v); routed to manual review", err)
}

// failClosed builds the decision returned when the checks or rules could not run.
func failClosed(content *domain.ContentInput, warning string) *domain.QualityDecision {
	return &domain.QualityDecision{
		ContentID:              content.ID,
		ContentType:            content.Type(),
		Section:                content.Type().Section(),
		Decision:               domain.DecisionManualReview,
		RuleResults:            []domain.RuleEvaluationResult{},
		Recommendations:        []string{},
		Warnings:               []string{warning},
		RequiredActions:        []string{"Route to manual review"},
		AssignedReviewers:      []string{},
		EstimatedReviewMinutes: EstimateReviewMinutes(content, nil),
	}
}

func (e *Engine) finish(span trace.Span, d *domain.QualityDecision, start time.Time, version int64) *domain.QualityDecision {
	elapsed := e.now().Sub(start)
	d.SnapshotVersion = version
	d.ProcessingTimeMs = elapsed.Milliseconds()
	d.EvaluatedAt = e.now().UTC()

	span.SetAttributes(
		attribute.String("decision", string(d.Decision)),
		attribute.Float64("overall_score", d.OverallScore),
		attribute.Int64("snapshot_version", version),
	)

	e.stats.record(d)
	e.deps.Observer.ObserveDecision(d, elapsed)
	if e.deps.Sink != nil {
		e.deps.Sink.SubmitDecision(d)
	}

	e.logger.Info("Content evaluated",
		infralogger.String("content_id", d.ContentID),
		infralogger.String("decision", string(d.Decision)),
		infralogger.Float64("overall_score", d.OverallScore),
		infralogger.Float64("confidence", d.Confidence),
		infralogger.Int("failed_rules", len(d.FailedRules())),
		infralogger.Duration("elapsed", elapsed),
	)
	return d
}
