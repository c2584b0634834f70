package storage_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/quality-engine/infrastructure/retry"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/storage"
)

type memoryDecisions struct {
	mu   sync.Mutex
	fail error
	got  map[string]domain.QualityDecision
}

func (m *memoryDecisions) UpsertDecision(_ context.Context, d *domain.QualityDecision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	if m.got == nil {
		m.got = make(map[string]domain.QualityDecision)
	}
	m.got[d.ContentID] = *d
	return nil
}

func (m *memoryDecisions) get(id string) (domain.QualityDecision, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.got[id]
	return d, ok
}

type memoryIndex struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func (m *memoryIndex) IndexDecision(_ context.Context, id string, doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docs == nil {
		m.docs = make(map[string][]byte)
	}
	m.docs[id] = doc
	return nil
}

type memoryDLQ struct {
	mu      sync.Mutex
	entries []*domain.DeadLetterEntry
}

func (m *memoryDLQ) Enqueue(_ context.Context, e *domain.DeadLetterEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *memoryDLQ) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// stalledDLQ holds every enqueue until release is closed.
type stalledDLQ struct {
	release chan struct{}
}

func (s *stalledDLQ) Enqueue(ctx context.Context, _ *domain.DeadLetterEntry) error {
	select {
	case <-s.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// gatedDecisions blocks every upsert until release is closed.
type gatedDecisions struct {
	started chan struct{}
	once    sync.Once
	release chan struct{}
}

func (g *gatedDecisions) UpsertDecision(context.Context, *domain.QualityDecision) error {
	g.once.Do(func() { close(g.started) })
	<-g.release
	return nil
}

type fingerprintRecorder struct {
	mu  sync.Mutex
	got []string
}

func (f *fingerprintRecorder) StoreFingerprint(_ context.Context, fp *domain.Fingerprint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, fp.ContentID)
	return nil
}

func fastRetry() retry.Config {
	return retry.Config{
		MaxAttempts:  2,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Multiplier:   2,
		IsRetryable:  retry.AlwaysRetry,
	}
}

func TestDecisionWriter_WritesStoreAndIndex(t *testing.T) {
	t.Parallel()

	decisions := &memoryDecisions{}
	index := &memoryIndex{}
	fps := &fingerprintRecorder{}
	w := storage.NewDecisionWriter(storage.WriterConfig{Workers: 2, Retry: fastRetry()}, storage.WriterTargets{
		Decisions:    decisions,
		Index:        index,
		Fingerprints: fps,
		DeadLetters:  &memoryDLQ{},
	}, nopLogger())
	w.Start()

	d := &domain.QualityDecision{ContentID: "a1", Decision: domain.DecisionAutoApprove, OverallScore: 94}
	w.SubmitDecision(d)
	w.SubmitFingerprint(&domain.Fingerprint{ContentID: "a1", ContentHash: "h"})

	// mutating after submit must not leak into the stored copy
	d.OverallScore = 1

	require.NoError(t, w.Close(context.Background()))

	stored, ok := decisions.get("a1")
	require.True(t, ok)
	assert.Equal(t, 94.0, stored.OverallScore)
	assert.Contains(t, string(index.docs["a1"]), `"overall_score":94`)
	assert.Equal(t, []string{"a1"}, fps.got)
}

func TestDecisionWriter_FailedWriteGoesToDeadLetter(t *testing.T) {
	t.Parallel()

	dlq := &memoryDLQ{}
	w := storage.NewDecisionWriter(storage.WriterConfig{Workers: 1, Retry: fastRetry()}, storage.WriterTargets{
		Decisions:   &memoryDecisions{fail: errors.New("connection refused")},
		DeadLetters: dlq,
	}, nopLogger())
	w.Start()

	w.SubmitDecision(&domain.QualityDecision{ContentID: "a1", Decision: domain.DecisionManualReview})
	require.NoError(t, w.Close(context.Background()))

	require.Equal(t, 1, dlq.len())
	entry := dlq.entries[0]
	assert.Equal(t, domain.TargetDecisionStore, entry.Target)
	assert.Equal(t, "a1", entry.ContentID)
	assert.Contains(t, entry.ErrorMessage, "connection refused")
}

func TestDecisionWriter_SubmitAfterCloseDeadLetters(t *testing.T) {
	t.Parallel()

	dlq := &memoryDLQ{}
	w := storage.NewDecisionWriter(storage.WriterConfig{}, storage.WriterTargets{
		Decisions:   &memoryDecisions{},
		DeadLetters: dlq,
	}, nopLogger())
	w.Start()
	require.NoError(t, w.Close(context.Background()))

	w.SubmitDecision(&domain.QualityDecision{ContentID: "late"})
	assert.Equal(t, 1, dlq.len())
}

func TestDecisionWriter_FullQueueDoesNotBlockSubmit(t *testing.T) {
	t.Parallel()

	store := &gatedDecisions{started: make(chan struct{}), release: make(chan struct{})}
	dlq := &stalledDLQ{release: make(chan struct{})}
	w := storage.NewDecisionWriter(storage.WriterConfig{QueueSize: 1, Workers: 1, Retry: fastRetry()}, storage.WriterTargets{
		Decisions:   store,
		DeadLetters: dlq,
	}, nopLogger())
	w.Start()

	w.SubmitDecision(&domain.QualityDecision{ContentID: "busy"})
	<-store.started

	start := time.Now()
	for i := range 6 {
		w.SubmitDecision(&domain.QualityDecision{ContentID: fmt.Sprintf("c%d", i)})
	}
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, 1, w.Pending())
	assert.GreaterOrEqual(t, w.Dropped(), int64(3))

	close(dlq.release)
	close(store.release)
	require.NoError(t, w.Close(context.Background()))
}

func TestDecisionWriter_OverflowGoesToDeadLetter(t *testing.T) {
	t.Parallel()

	store := &gatedDecisions{started: make(chan struct{}), release: make(chan struct{})}
	dlq := &memoryDLQ{}
	w := storage.NewDecisionWriter(storage.WriterConfig{QueueSize: 1, Workers: 1, Retry: fastRetry()}, storage.WriterTargets{
		Decisions:   store,
		DeadLetters: dlq,
	}, nopLogger())
	w.Start()

	w.SubmitDecision(&domain.QualityDecision{ContentID: "busy"})
	<-store.started

	w.SubmitDecision(&domain.QualityDecision{ContentID: "queued"})
	w.SubmitDecision(&domain.QualityDecision{ContentID: "overflow"})

	require.Eventually(t, func() bool { return dlq.len() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "overflow", dlq.entries[0].ContentID)
	assert.Contains(t, dlq.entries[0].ErrorMessage, "write queue full")

	close(store.release)
	require.NoError(t, w.Close(context.Background()))
	assert.Zero(t, w.Dropped())
}

func TestDecisionWriter_Replay(t *testing.T) {
	t.Parallel()

	decisions := &memoryDecisions{}
	w := storage.NewDecisionWriter(storage.WriterConfig{}, storage.WriterTargets{Decisions: decisions}, nopLogger())

	entry, err := domain.NewDeadLetterEntry("a1", domain.TargetDecisionStore,
		[]byte(`{"content_id":"a1","decision":"auto_reject"}`), errors.New("boom"))
	require.NoError(t, err)

	require.NoError(t, w.Replay(context.Background(), entry))
	stored, ok := decisions.get("a1")
	require.True(t, ok)
	assert.Equal(t, domain.DecisionAutoReject, stored.Decision)

	entry.Target = domain.TargetDecisionIndex
	assert.Error(t, w.Replay(context.Background(), entry), "no index configured")
}
