package rules

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	infralogger "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
)

const (
	defaultRefreshSchedule = "@every 5m"
	reloadTimeout          = 30 * time.Second
)

// RefresherConfig tunes the Refresher.
type RefresherConfig struct {
	// Schedule is a cron spec; descriptors such as "@every 5m" are accepted.
	Schedule string
	// UseDefaults installs DefaultRules when the source holds no active rules.
	UseDefaults bool
}

// Refresher rebuilds the engine snapshot from a RuleSource on a cron
// schedule and on demand after administrative writes.
type Refresher struct {
	source   RuleSource
	engine   *Engine
	registry *FieldRegistry
	config   RefresherConfig
	logger   infralogger.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	version atomic.Int64
}

// NewRefresher creates a Refresher.
func NewRefresher(
	source RuleSource,
	engine *Engine,
	registry *FieldRegistry,
	cfg RefresherConfig,
	logger infralogger.Logger,
) *Refresher {
	if cfg.Schedule == "" {
		cfg.Schedule = defaultRefreshSchedule
	}
	return &Refresher{
		source:   source,
		engine:   engine,
		registry: registry,
		config:   cfg,
		logger:   logger,
	}
}

// Reload builds a new snapshot and swaps it in. On error the current
// snapshot stays installed.
func (r *Refresher) Reload(ctx context.Context) (*Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rules, err := r.source.ListActiveRules(ctx, "", "")
	if err != nil {
		return nil, fmt.Errorf("list active rules: %w", err)
	}
	if len(rules) == 0 && r.config.UseDefaults {
		r.logger.Info("No active rules stored, using default rule pack")
		rules = DefaultRules()
	}

	thresholds := make([]domain.QualityThresholds, 0, len(domain.ContentTypes()))
	for _, ct := range domain.ContentTypes() {
		t, tErr := r.source.GetThresholds(ctx, ct)
		if errors.Is(tErr, domain.ErrNotFound) {
			continue
		}
		if tErr != nil {
			return nil, fmt.Errorf("get thresholds %s: %w", ct, tErr)
		}
		thresholds = append(thresholds, *t)
	}

	snap, rejected := BuildSnapshot(rules, thresholds, r.version.Add(1), r.registry, r.logger)
	r.engine.Swap(snap)
	r.logger.Info("Rule snapshot reloaded",
		infralogger.Int64("version", snap.Version()),
		infralogger.Int("rules", snap.Len()),
		infralogger.Int("rejected", len(rejected)),
	)
	return snap, nil
}

// Start performs an initial reload and schedules periodic reloads. A failed
// initial reload is logged; the engine then fails closed until a reload succeeds.
func (r *Refresher) Start(ctx context.Context) error {
	if _, err := r.Reload(ctx); err != nil {
		r.logger.Error("Initial rule reload failed", infralogger.Error(err))
	}

	c := cron.New()
	if _, err := c.AddFunc(r.config.Schedule, func() {
		reloadCtx, cancel := context.WithTimeout(ctx, reloadTimeout)
		defer cancel()
		if _, err := r.Reload(reloadCtx); err != nil {
			r.logger.Warn("Scheduled rule reload failed", infralogger.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule rule reload %q: %w", r.config.Schedule, err)
	}

	r.mu.Lock()
	r.cron = c
	r.mu.Unlock()
	c.Start()

	r.logger.Info("Rule refresher started", infralogger.String("schedule", r.config.Schedule))
	return nil
}

// Stop halts scheduled reloads and waits for a running reload to finish.
func (r *Refresher) Stop() {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	r.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
}
