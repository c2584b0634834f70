// Package telemetry provides Prometheus metrics and OpenTelemetry tracing for the quality engine.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
)

const (
	serviceName = "quality-engine"
	namespace   = "quality_engine"

	outcomeOK    = "ok"
	outcomeError = "error"
)

// Metrics holds all quality engine Prometheus metrics
type Metrics struct {
	// Evaluation metrics
	Evaluations        *prometheus.CounterVec
	EvaluationDuration *prometheus.HistogramVec
	OverallScore       *prometheus.HistogramVec
	Confidence         prometheus.Histogram
	FailedRules        *prometheus.CounterVec

	// Sub-check metrics
	CheckDuration *prometheus.HistogramVec
	CheckErrors   *prometheus.CounterVec

	// Rule snapshot metrics
	SnapshotVersion prometheus.Gauge
	ActiveRules     prometheus.Gauge

	// Persistence metrics
	Writes            *prometheus.CounterVec
	DLQEnqueued       *prometheus.CounterVec
	DLQProcessed      prometheus.Counter
	DLQExhausted      prometheus.Counter
	DLQDepth          prometheus.Gauge
	BatchSize         prometheus.Histogram
	BatchItemsDropped prometheus.Counter
}

// Provider wraps telemetry providers
type Provider struct {
	Tracer   trace.Tracer
	Metrics  *Metrics
	registry *prometheus.Registry
}

// NewProvider registers the metrics on a fresh registry together with the
// Go and process collectors.
func NewProvider() *Provider {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Provider{
		Tracer:   otel.Tracer(serviceName),
		Metrics:  initMetrics(promauto.With(reg)),
		registry: reg,
	}
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the registry, mostly for tests.
func (p *Provider) Gatherer() prometheus.Gatherer {
	return p.registry
}

// Registerer lets other packages add collectors to the same registry.
func (p *Provider) Registerer() prometheus.Registerer {
	return p.registry
}

func initMetrics(f promauto.Factory) *Metrics {
	m := &Metrics{}
	initEvaluationMetrics(f, m)
	initCheckMetrics(f, m)
	initPersistenceMetrics(f, m)
	return m
}

func initEvaluationMetrics(f promauto.Factory, m *Metrics) {
	m.Evaluations = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "evaluations_total",
		Help:      "Total evaluations by decision and content type",
	}, []string{"decision", "content_type"})

	m.EvaluationDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "evaluation_duration_seconds",
		Help:      "Wall time of a full evaluation",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
	}, []string{"content_type"})

	m.OverallScore = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "overall_score",
		Help:      "Distribution of overall quality scores",
		Buckets:   prometheus.LinearBuckets(10, 10, 9),
	}, []string{"content_type"})

	m.Confidence = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "decision_confidence",
		Help:      "Distribution of decision confidence",
		Buckets:   prometheus.LinearBuckets(10, 10, 9),
	})

	m.FailedRules = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rule_failures_total",
		Help:      "Failed rule evaluations by severity",
	}, []string{"severity"})

	m.SnapshotVersion = f.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rule_snapshot_version",
		Help:      "Version of the active rule snapshot",
	})

	m.ActiveRules = f.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_rules",
		Help:      "Rules in the active snapshot",
	})
}

func initCheckMetrics(f promauto.Factory, m *Metrics) {
	m.CheckDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "check_duration_seconds",
		Help:      "Time spent in each sub-check",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5, 1.0},
	}, []string{"check"})

	m.CheckErrors = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "check_errors_total",
		Help:      "Sub-checks that returned an error",
	}, []string{"check"})
}

func initPersistenceMetrics(f promauto.Factory, m *Metrics) {
	m.Writes = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "writes_total",
		Help:      "Persistence writes by target and outcome",
	}, []string{"target", "outcome"})

	m.DLQEnqueued = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dlq_enqueued_total",
		Help:      "Writes moved to the dead-letter queue",
	}, []string{"target"})

	m.DLQProcessed = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dlq_processed_total",
		Help:      "Dead letters replayed successfully",
	})

	m.DLQExhausted = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dlq_exhausted_total",
		Help:      "Dead letters that ran out of retries",
	})

	m.DLQDepth = f.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "dlq_depth",
		Help:      "Pending entries in the dead-letter queue",
	})

	m.BatchSize = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "batch_size",
		Help:      "Items per batch evaluation request",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 200, 500},
	})

	m.BatchItemsDropped = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batch_items_dropped_total",
		Help:      "Batch items not evaluated because the request context ended",
	})
}

// ObserveDecision records a finished evaluation.
func (p *Provider) ObserveDecision(d *domain.QualityDecision, elapsed time.Duration) {
	ct := string(d.ContentType)
	p.Metrics.Evaluations.WithLabelValues(string(d.Decision), ct).Inc()
	p.Metrics.EvaluationDuration.WithLabelValues(ct).Observe(elapsed.Seconds())
	p.Metrics.OverallScore.WithLabelValues(ct).Observe(d.OverallScore)
	p.Metrics.Confidence.Observe(d.Confidence)
	for _, r := range d.RuleResults {
		if !r.Passed {
			p.Metrics.FailedRules.WithLabelValues(string(r.Severity)).Inc()
		}
	}
}

// ObserveCheck records one sub-check run.
func (p *Provider) ObserveCheck(check string, elapsed time.Duration, err error) {
	p.Metrics.CheckDuration.WithLabelValues(check).Observe(elapsed.Seconds())
	if err != nil {
		p.Metrics.CheckErrors.WithLabelValues(check).Inc()
	}
}

// ObserveSnapshot records a rule snapshot swap.
func (p *Provider) ObserveSnapshot(version int64, rules int) {
	p.Metrics.SnapshotVersion.Set(float64(version))
	p.Metrics.ActiveRules.Set(float64(rules))
}

// ObserveWrite records a persistence write.
func (p *Provider) ObserveWrite(target domain.WriteTarget, err error) {
	outcome := outcomeOK
	if err != nil {
		outcome = outcomeError
	}
	p.Metrics.Writes.WithLabelValues(string(target), outcome).Inc()
}

// ObserveDeadLetter records a write parked in the dead-letter queue.
func (p *Provider) ObserveDeadLetter(target domain.WriteTarget) {
	p.Metrics.DLQEnqueued.WithLabelValues(string(target)).Inc()
}

// ObserveReplay records a dead-letter replay.
func (p *Provider) ObserveReplay(succeeded, exhausted bool) {
	if succeeded {
		p.Metrics.DLQProcessed.Inc()
	}
	if exhausted {
		p.Metrics.DLQExhausted.Inc()
	}
}

// ObserveDLQDepth records the pending dead-letter count.
func (p *Provider) ObserveDLQDepth(pending int64) {
	p.Metrics.DLQDepth.Set(float64(pending))
}

// ObserveBatch records a batch request and how many items were skipped.
func (p *Provider) ObserveBatch(size, dropped int) {
	p.Metrics.BatchSize.Observe(float64(size))
	p.Metrics.BatchItemsDropped.Add(float64(dropped))
}
