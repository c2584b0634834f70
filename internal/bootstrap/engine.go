package bootstrap

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	infralogger "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/assessment"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/config"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/duplicate"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/factcheck"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/moderation"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/rules"
)

// EngineOptions are the collaborators that differ between the service and
// offline use. Sinks, Observer and Tracer may be nil.
type EngineOptions struct {
	Rules           rules.RuleSource
	Sources         factcheck.SourceProvider
	Fingerprints    duplicate.FingerprintStore
	DecisionSink    rules.DecisionSink
	FingerprintSink duplicate.FingerprintSink
	Observer        rules.Observer
	Tracer          trace.Tracer
}

// EngineComponents is the assembled evaluation pipeline.
type EngineComponents struct {
	Engine    *rules.Engine
	Refresher *rules.Refresher
	Registry  *rules.FieldRegistry
	Detector  *duplicate.Detector
	Sources   *factcheck.CachedProvider
}

// BuildEngine assembles the checks, the rule engine and its refresher. No
// snapshot is installed; call Refresher.Reload or Refresher.Start.
func BuildEngine(cfg *config.Config, opts EngineOptions, log infralogger.Logger) *EngineComponents {
	detector := duplicate.NewDetector(opts.Fingerprints, opts.FingerprintSink, duplicate.Config{
		SimilarityThreshold: cfg.Duplicate.SimilarityThreshold,
		CorpusLimit:         cfg.Duplicate.CorpusLimit,
	}, log)

	sources := factcheck.NewCachedProvider(opts.Sources, cfg.FactCheck.SourceCacheSize, cfg.FactCheck.SourceCacheTTL)
	verifier := factcheck.NewVerifier(sources, newSourceLookup(cfg, log), factcheck.Config{
		SourceTypes: sourceTypes(cfg.FactCheck.SourceTypes),
	}, log)

	engine := rules.NewEngine(rules.Deps{
		Assessor:   assessment.New(log),
		Moderator:  moderation.New(log),
		Duplicates: detector,
		Facts:      verifier,
		Sink:       opts.DecisionSink,
		Observer:   opts.Observer,
		Tracer:     opts.Tracer,
	}, rules.Config{EvaluationTimeout: cfg.Engine.EvaluationTimeout}, log)

	registry := rules.NewFieldRegistry()
	refresher := rules.NewRefresher(opts.Rules, engine, registry, rules.RefresherConfig{
		Schedule:    cfg.Engine.RefreshSchedule,
		UseDefaults: cfg.Engine.DefaultRulesEnabled(),
	}, log)

	return &EngineComponents{
		Engine:    engine,
		Refresher: refresher,
		Registry:  registry,
		Detector:  detector,
		Sources:   sources,
	}
}

// NewOfflineEngine builds an engine over in-memory stores, the default rule
// pack and the built-in trusted sources. Decisions are not persisted.
func NewOfflineEngine(ctx context.Context, cfg *config.Config, log infralogger.Logger) (*EngineComponents, error) {
	offline := *cfg
	offline.FactCheck.LookupURL = ""
	useDefaults := true
	offline.Engine.UseDefaultRules = &useDefaults

	components := BuildEngine(&offline, EngineOptions{
		Rules:        rules.NewMemoryRepository(),
		Sources:      factcheck.NewStaticProvider(factcheck.DefaultSources()),
		Fingerprints: duplicate.NewMemoryStore(),
	}, log)

	if _, err := components.Refresher.Reload(ctx); err != nil {
		return nil, fmt.Errorf("load default rules: %w", err)
	}
	return components, nil
}

func newSourceLookup(cfg *config.Config, log infralogger.Logger) factcheck.SourceLookup {
	if cfg.FactCheck.LookupURL == "" {
		return factcheck.KeywordLookup{}
	}
	log.Info("Fact check lookup service enabled", infralogger.String("url", cfg.FactCheck.LookupURL))
	return factcheck.NewHTTPLookup(factcheck.HTTPLookupConfig{
		Endpoint:         cfg.FactCheck.LookupURL,
		Timeout:          cfg.FactCheck.LookupTimeout,
		RequestsPerSec:   cfg.FactCheck.RequestsPerSecond,
		FailureThreshold: cfg.FactCheck.BreakerFailures,
		OpenTimeout:      cfg.FactCheck.BreakerOpenTimeout,
	}, log)
}

func sourceTypes(names []string) []domain.SourceType {
	if len(names) == 0 {
		return nil
	}
	out := make([]domain.SourceType, 0, len(names))
	for _, name := range names {
		out = append(out, domain.SourceType(name))
	}
	return out
}
