// Package testhelpers provides shared test doubles for the quality engine.
package testhelpers

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
)

// StubChecks returns fixed sub-results from every check.
type StubChecks struct {
	Assessment domain.AssessmentResult
	Moderation domain.ModerationResult
	Duplicate  domain.DuplicateResult
	FactCheck  domain.FactCheckResult
}

// HighScores returns checks that lead to auto approval of news content
// under the default rule pack, with an overall score of 94.
func HighScores() *StubChecks {
	return &StubChecks{
		Assessment: domain.AssessmentResult{
			OverallScore:        92,
			CulturalSensitivity: 95,
			Readability:         80,
			AutoApproveEligible: true,
			Cultural:            domain.CulturalAssessment{OverallScore: 95, ComplianceLevel: domain.ComplianceExcellent},
		},
		Moderation: domain.ModerationResult{
			SafetyScore: 95,
			IssueScore:  100,
			Status:      domain.ModerationSafe,
			AutoAction:  domain.ModerationActionApprove,
		},
		Duplicate: domain.DuplicateResult{DuplicateType: domain.DuplicateNone, Score: 100},
		FactCheck: domain.FactCheckResult{Confidence: 90},
	}
}

func (s *StubChecks) Assess(context.Context, *domain.ContentInput, domain.QualityThresholds) (*domain.AssessmentResult, error) {
	r := s.Assessment
	return &r, nil
}

func (s *StubChecks) Moderate(context.Context, *domain.ContentInput) (*domain.ModerationResult, error) {
	r := s.Moderation
	return &r, nil
}

func (s *StubChecks) Check(context.Context, *domain.ContentInput) (*domain.DuplicateResult, error) {
	r := s.Duplicate
	return &r, nil
}

func (s *StubChecks) Verify(context.Context, *domain.ContentInput) (*domain.FactCheckResult, error) {
	r := s.FactCheck
	return &r, nil
}

// MockDecisionStore keeps decisions in memory.
type MockDecisionStore struct {
	mu        sync.RWMutex
	decisions map[string]domain.QualityDecision
	err       error
}

// NewMockDecisionStore creates an empty store.
func NewMockDecisionStore() *MockDecisionStore {
	return &MockDecisionStore{decisions: make(map[string]domain.QualityDecision)}
}

// FailWith makes every subsequent call return err. nil restores normal behavior.
func (m *MockDecisionStore) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// UpsertDecision stores d by content ID.
func (m *MockDecisionStore) UpsertDecision(_ context.Context, d *domain.QualityDecision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.decisions[d.ContentID] = *d
	return nil
}

// GetDecision returns domain.ErrNotFound for unknown IDs.
func (m *MockDecisionStore) GetDecision(_ context.Context, contentID string) (*domain.QualityDecision, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	d, ok := m.decisions[contentID]
	if !ok {
		return nil, fmt.Errorf("decision %s: %w", contentID, domain.ErrNotFound)
	}
	return &d, nil
}

// GetStats aggregates the stored decisions.
func (m *MockDecisionStore) GetStats(_ context.Context) (*domain.DecisionStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	stats := &domain.DecisionStats{ByDecision: make(map[domain.Decision]int64)}
	var score, confidence float64
	for _, d := range m.decisions {
		stats.Total++
		stats.ByDecision[d.Decision]++
		score += d.OverallScore
		confidence += d.Confidence
	}
	if stats.Total > 0 {
		stats.AverageScore = score / float64(stats.Total)
		stats.AverageConfidence = confidence / float64(stats.Total)
	}
	return stats, nil
}

// Len returns the number of stored decisions.
func (m *MockDecisionStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.decisions)
}

// MockDeadLetterStore keeps dead letters in memory, keyed by content ID and target.
type MockDeadLetterStore struct {
	mu      sync.Mutex
	entries map[string]domain.DeadLetterEntry
	now     func() time.Time
}

// NewMockDeadLetterStore creates an empty store.
func NewMockDeadLetterStore() *MockDeadLetterStore {
	return &MockDeadLetterStore{
		entries: make(map[string]domain.DeadLetterEntry),
		now:     time.Now,
	}
}

func deadLetterKey(e *domain.DeadLetterEntry) string {
	return e.ContentID + "|" + string(e.Target)
}

// Enqueue adds entry, replacing an earlier entry for the same content and target.
func (m *MockDeadLetterStore) Enqueue(_ context.Context, entry *domain.DeadLetterEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := deadLetterKey(entry)
	if existing, ok := m.entries[key]; ok {
		entry.ID = existing.ID
	}
	if entry.ID == "" {
		entry.ID = key
	}
	m.entries[key] = *entry
	return nil
}

// FetchRetryable returns due entries with retries left, oldest first.
func (m *MockDeadLetterStore) FetchRetryable(_ context.Context, limit int) ([]domain.DeadLetterEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	var out []domain.DeadLetterEntry
	for _, e := range m.entries {
		if e.ShouldRetry() && !e.NextRetryAt.After(now) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Remove deletes the entry with id.
func (m *MockDeadLetterStore) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, e := range m.entries {
		if e.ID == id {
			delete(m.entries, key)
			return nil
		}
	}
	return fmt.Errorf("dead letter %s: %w", id, domain.ErrNotFound)
}

// UpdateRetry stores the retry bookkeeping of entry.
func (m *MockDeadLetterStore) UpdateRetry(_ context.Context, entry *domain.DeadLetterEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := deadLetterKey(entry)
	if _, ok := m.entries[key]; !ok {
		return fmt.Errorf("dead letter %s: %w", entry.ID, domain.ErrNotFound)
	}
	m.entries[key] = *entry
	return nil
}

// GetStats counts pending, exhausted and due entries.
func (m *MockDeadLetterStore) GetStats(_ context.Context) (*domain.DLQStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	stats := &domain.DLQStats{}
	for _, e := range m.entries {
		if !e.ShouldRetry() {
			stats.Exhausted++
			continue
		}
		stats.Pending++
		if !e.NextRetryAt.After(now) {
			stats.Ready++
		}
	}
	return stats, nil
}

// Entries returns a copy of every entry.
func (m *MockDeadLetterStore) Entries() []domain.DeadLetterEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.DeadLetterEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	return out
}
