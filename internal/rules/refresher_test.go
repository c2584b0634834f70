package rules_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infralogger "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/rules"
)

type failingSource struct{}

func (failingSource) ListActiveRules(context.Context, string, string) ([]domain.QualityRule, error) {
	return nil, errors.New("connection refused")
}

func (failingSource) GetThresholds(context.Context, domain.ContentType) (*domain.QualityThresholds, error) {
	return nil, errors.New("connection refused")
}

func newRefresher(t *testing.T, source rules.RuleSource, useDefaults bool) (*rules.Refresher, *rules.Engine) {
	t.Helper()
	e := newFakeEngine(t, highScores(), rules.Config{}, nil)
	r := rules.NewRefresher(source, e, rules.NewFieldRegistry(), rules.RefresherConfig{
		Schedule:    "@every 1h",
		UseDefaults: useDefaults,
	}, infralogger.NewNop())
	return r, e
}

func TestRefresher_EmptyRepositoryUsesDefaults(t *testing.T) {
	t.Parallel()

	r, e := newRefresher(t, rules.NewMemoryRepository(), true)

	snap, err := r.Reload(context.Background())
	require.NoError(t, err)

	assert.Same(t, snap, e.Snapshot())
	assert.Equal(t, len(rules.DefaultRules()), snap.Len())
	assert.Equal(t, int64(1), snap.Version())
}

func TestRefresher_LoadsStoredRulesAndThresholds(t *testing.T) {
	t.Parallel()

	repo := rules.NewMemoryRepository()
	ctx := context.Background()
	require.NoError(t, repo.CreateRule(ctx, &domain.QualityRule{
		Name:     "SEO floor",
		Priority: domain.PriorityMedium,
		Active:   true,
		Conditions: domain.Conditions{
			{Field: "assessment.seo", Operator: domain.OpGreaterOrEqual, Value: 50.0, Weight: 1},
		},
	}))
	require.NoError(t, repo.CreateRule(ctx, &domain.QualityRule{
		Name:     "Broken",
		Priority: domain.PriorityMedium,
		Active:   true,
		Conditions: domain.Conditions{
			{Field: "assessment.unknown", Operator: domain.OpGreaterOrEqual, Value: 50.0, Weight: 1},
		},
	}))
	gov := domain.DefaultThresholds(domain.ContentTypeGovernment)
	gov.AutoApproveThreshold = 97
	repo.SetThresholds(gov)

	r, e := newRefresher(t, repo, true)
	_, err := r.Reload(ctx)
	require.NoError(t, err)

	snap := e.Snapshot()
	require.Equal(t, 1, snap.Len(), "invalid stored rule is dropped")
	assert.Equal(t, "SEO floor", snap.Rules()[0].Name)
	assert.Equal(t, 97.0, snap.Thresholds(domain.ContentTypeGovernment).AutoApproveThreshold)

	_, err = r.Reload(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), e.Snapshot().Version())
}

func TestRefresher_FailedReloadKeepsSnapshot(t *testing.T) {
	t.Parallel()

	r, e := newRefresher(t, failingSource{}, true)
	previous, _ := rules.BuildSnapshot(rules.DefaultRules(), nil, 41, rules.NewFieldRegistry(), infralogger.NewNop())
	e.Swap(previous)

	_, err := r.Reload(context.Background())
	require.Error(t, err)
	assert.Same(t, previous, e.Snapshot())
}

func TestRefresher_StartAndStop(t *testing.T) {
	t.Parallel()

	r, e := newRefresher(t, rules.NewMemoryRepository(), true)
	require.NoError(t, r.Start(context.Background()))
	defer r.Stop()

	require.NotNil(t, e.Snapshot())
	assert.Equal(t, len(rules.DefaultRules()), e.Snapshot().Len())
}

func TestRefresher_StartRejectsBadSchedule(t *testing.T) {
	t.Parallel()

	e := newFakeEngine(t, highScores(), rules.Config{}, nil)
	r := rules.NewRefresher(rules.NewMemoryRepository(), e, rules.NewFieldRegistry(),
		rules.RefresherConfig{Schedule: "every now and then"}, infralogger.NewNop())

	assert.Error(t, r.Start(context.Background()))
	r.Stop()
}

func TestMemoryRepository_CRUD(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := rules.NewMemoryRepository()
	rule := &domain.QualityRule{Name: "r", Priority: domain.PriorityLow, Active: true}
	require.NoError(t, repo.CreateRule(ctx, rule))
	require.NotEmpty(t, rule.ID)

	got, err := repo.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, "r", got.Name)

	rule.Active = false
	require.NoError(t, repo.UpdateRule(ctx, rule))
	active, err := repo.ListActiveRules(ctx, "", "")
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := repo.ListRules(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, repo.DeleteRule(ctx, rule.ID))
	_, err = repo.GetRule(ctx, rule.ID)
	assert.ErrorIs(t, err, domain.ErrRuleNotFound)
	assert.ErrorIs(t, repo.DeleteRule(ctx, rule.ID), domain.ErrRuleNotFound)

	_, err = repo.GetThresholds(ctx, domain.ContentTypeNews)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryRepository_ListActiveRulesFilters(t *testing.T) {
	t.Parallel()

	repo := rules.NewMemoryRepository(
		domain.QualityRule{ID: "a", Active: true, ContentTypes: []string{"news"}},
		domain.QualityRule{ID: "b", Active: true, ContentTypes: []string{"all"}, GeographicScope: []string{"dubai"}},
		domain.QualityRule{ID: "c", Active: true},
	)

	list := func(ct, geo string) []string {
		rs, err := repo.ListActiveRules(context.Background(), ct, geo)
		require.NoError(t, err)
		var ids []string
		for _, r := range rs {
			ids = append(ids, r.ID)
		}
		return ids
	}

	assert.Equal(t, []string{"a", "b", "c"}, list("", ""))
	assert.Equal(t, []string{"b", "c"}, list("tourism", ""))
	assert.Equal(t, []string{"a", "c"}, list("news", "sharjah"))
}
