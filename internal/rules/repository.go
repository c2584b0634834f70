package rules

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
)

// RuleSource is the read side used to build snapshots.
// Empty contentType or geoScope means no filter.
type RuleSource interface {
	ListActiveRules(ctx context.Context, contentType, geoScope string) ([]domain.QualityRule, error)
	GetThresholds(ctx context.Context, contentType domain.ContentType) (*domain.QualityThresholds, error)
}

// RuleRepository adds the administrative operations.
type RuleRepository interface {
	RuleSource
	CreateRule(ctx context.Context, rule *domain.QualityRule) error
	UpdateRule(ctx context.Context, rule *domain.QualityRule) error
	DeleteRule(ctx context.Context, id string) error
	GetRule(ctx context.Context, id string) (*domain.QualityRule, error)
	ListRules(ctx context.Context) ([]domain.QualityRule, error)
}

// MemoryRepository keeps rules and thresholds in process.
type MemoryRepository struct {
	mu         sync.RWMutex
	rules      map[string]domain.QualityRule
	thresholds map[domain.ContentType]domain.QualityThresholds
}

// NewMemoryRepository creates a repository seeded with rules.
func NewMemoryRepository(rules ...domain.QualityRule) *MemoryRepository {
	r := &MemoryRepository{
		rules:      make(map[string]domain.QualityRule, len(rules)),
		thresholds: make(map[domain.ContentType]domain.QualityThresholds),
	}
	for _, rule := range rules {
		if rule.ID == "" {
			rule.ID = uuid.NewString()
		}
		r.rules[rule.ID] = rule
	}
	return r
}

// ListActiveRules returns active rules matching the filters, ordered by ID.
func (r *MemoryRepository) ListActiveRules(_ context.Context, contentType, geoScope string) ([]domain.QualityRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.QualityRule, 0, len(r.rules))
	for _, rule := range r.rules {
		if !rule.Active {
			continue
		}
		if contentType != "" && !admits(rule.ContentTypes, contentType) {
			continue
		}
		if geoScope != "" && !admits(rule.GeographicScope, geoScope) {
			continue
		}
		out = append(out, rule)
	}
	sortRules(out)
	return out, nil
}

// GetThresholds returns domain.ErrNotFound when none are configured for contentType.
func (r *MemoryRepository) GetThresholds(_ context.Context, contentType domain.ContentType) (*domain.QualityThresholds, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.thresholds[contentType]
	if !ok {
		return nil, fmt.Errorf("thresholds %s: %w", contentType, domain.ErrNotFound)
	}
	return &t, nil
}

// SetThresholds stores thresholds for their content type.
func (r *MemoryRepository) SetThresholds(t domain.QualityThresholds) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.thresholds[t.ContentType] = t
}

// UpsertThresholds stores t, replacing any thresholds for its content type.
func (r *MemoryRepository) UpsertThresholds(_ context.Context, t *domain.QualityThresholds) error {
	r.SetThresholds(*t)
	return nil
}

// CreateRule assigns an ID when missing and stores rule.
func (r *MemoryRepository) CreateRule(_ context.Context, rule *domain.QualityRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	r.rules[rule.ID] = *rule
	return nil
}

// UpdateRule replaces an existing rule.
func (r *MemoryRepository) UpdateRule(_ context.Context, rule *domain.QualityRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.rules[rule.ID]
	if !ok {
		return fmt.Errorf("update rule %s: %w", rule.ID, domain.ErrRuleNotFound)
	}
	rule.CreatedAt = existing.CreatedAt
	rule.UpdatedAt = time.Now().UTC()
	r.rules[rule.ID] = *rule
	return nil
}

// DeleteRule removes a rule.
func (r *MemoryRepository) DeleteRule(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[id]; !ok {
		return fmt.Errorf("delete rule %s: %w", id, domain.ErrRuleNotFound)
	}
	delete(r.rules, id)
	return nil
}

// GetRule returns one rule.
func (r *MemoryRepository) GetRule(_ context.Context, id string) (*domain.QualityRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[id]
	if !ok {
		return nil, fmt.Errorf("get rule %s: %w", id, domain.ErrRuleNotFound)
	}
	return &rule, nil
}

// ListRules returns every rule, active or not, ordered by ID.
func (r *MemoryRepository) ListRules(_ context.Context) ([]domain.QualityRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.QualityRule, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, rule)
	}
	sortRules(out)
	return out, nil
}

func admits(filter []string, value string) bool {
	return len(filter) == 0 || slices.Contains(filter, domain.ContentTypeAll) || slices.Contains(filter, value)
}

func sortRules(rules []domain.QualityRule) {
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
}
