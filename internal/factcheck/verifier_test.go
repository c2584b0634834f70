package factcheck

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/quality-engine/infrastructure/circuitbreaker"
	infralogger "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
)

type fixedLookup struct {
	verdict Verdict
	err     error
}

func (f fixedLookup) Lookup(context.Context, Claim, domain.TrustedSource) (Verdict, error) {
	return f.verdict, f.err
}

// stallingLookup never answers for stalled, and supports every claim elsewhere.
type stallingLookup struct {
	stalled string
}

func (l stallingLookup) Lookup(ctx context.Context, _ Claim, src domain.TrustedSource) (Verdict, error) {
	if src.ID == l.stalled {
		<-ctx.Done()
		return VerdictUnknown, ctx.Err()
	}
	return VerdictSupports, nil
}

type failingProvider struct{}

func (failingProvider) ListTrustedSources(context.Context, []domain.SourceType) ([]domain.TrustedSource, error) {
	return nil, errors.New("database down")
}

type countingProvider struct {
	calls atomic.Int32
}

func (p *countingProvider) ListTrustedSources(context.Context, []domain.SourceType) ([]domain.TrustedSource, error) {
	p.calls.Add(1)
	return DefaultSources(), nil
}

var censusSource = domain.TrustedSource{
	ID: "s1", Name: "Census Bureau", SourceType: domain.SourceGovernment,
	ReliabilityScore: 90, Active: true, Keywords: []string{"population", "census"},
}

func newTestVerifier(provider SourceProvider, lookup SourceLookup) *Verifier {
	v := NewVerifier(provider, lookup, Config{}, infralogger.NewNop())
	v.now = func() time.Time { return time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC) }
	return v
}

func verify(t *testing.T, v *Verifier, body string) *domain.FactCheckResult {
	t.Helper()
	result, err := v.Verify(context.Background(), &domain.ContentInput{ID: "c1", Title: "t", Body: body})
	require.NoError(t, err)
	return result
}

func TestVerify_NoClaimsIsFullyConfident(t *testing.T) {
	t.Parallel()

	result := verify(t, newTestVerifier(NewStaticProvider(nil), nil), "Lovely weather for a walk.")
	assert.Empty(t, result.Claims)
	assert.Equal(t, 100.0, result.Confidence)
	assert.False(t, result.RequiresManualReview)
}

func TestVerify_ImportanceWeightedConfidence(t *testing.T) {
	t.Parallel()

	v := newTestVerifier(NewStaticProvider([]domain.TrustedSource{censusSource}), nil)
	result := verify(t, v, "According to the census, the population of Dubai grew 5 percent. Experts say the view is lovely.")

	require.Len(t, result.Claims, 2)
	stat := result.Claims[0]
	assert.Equal(t, domain.ClaimStatistic, stat.Type)
	assert.Equal(t, domain.ImportanceHigh, stat.Importance)
	assert.Equal(t, domain.ClaimVerified, stat.Status)
	assert.Equal(t, 100.0, stat.Confidence)
	assert.Equal(t, []string{"Census Bureau"}, stat.SupportingSources)

	general := result.Claims[1]
	assert.Equal(t, domain.ClaimGeneral, general.Type)
	assert.Equal(t, domain.ImportanceLow, general.Importance)
	assert.Equal(t, 50.0, general.Confidence)

	assert.Equal(t, 88.0, result.Confidence)
	assert.Equal(t, 1, result.VerifiedCount)
	assert.Equal(t, 1, result.UnverifiedCount)
}

func TestVerify_ContradictedImpossiblePercentage(t *testing.T) {
	t.Parallel()

	v := newTestVerifier(NewStaticProvider([]domain.TrustedSource{censusSource}), fixedLookup{verdict: VerdictContradicts})
	result := verify(t, v, "Officials said the project is 150% complete.")

	require.Len(t, result.Claims, 1)
	claim := result.Claims[0]
	assert.Equal(t, domain.ClaimDisputed, claim.Status)
	assert.Equal(t, 0.0, claim.Confidence)
	assert.Contains(t, claim.Notes, "percentage exceeds 100: 150%")
	assert.True(t, result.RequiresManualReview)
	assert.Equal(t, 1, result.DisputedCount)
}

func TestVerify_LookupFailureDegradesToNeutral(t *testing.T) {
	t.Parallel()

	v := newTestVerifier(NewStaticProvider([]domain.TrustedSource{censusSource}), fixedLookup{err: errors.New("timeout")})
	result := verify(t, v, "The festival takes place in Dubai.")

	require.Len(t, result.Claims, 1)
	claim := result.Claims[0]
	assert.Equal(t, domain.ClaimLocation, claim.Type)
	assert.Equal(t, domain.ClaimUnverified, claim.Status)
	assert.Equal(t, 68.0, claim.Confidence)
	assert.Equal(t, []string{"source lookup failed: s1"}, result.Warnings)
}

func TestVerify_StalledSourceFinishesBeforeDeadline(t *testing.T) {
	t.Parallel()

	stalled := domain.TrustedSource{
		ID: "s2", Name: "Slow Wire", SourceType: domain.SourceNews, ReliabilityScore: 70, Active: true,
	}
	v := newTestVerifier(
		NewStaticProvider([]domain.TrustedSource{censusSource, stalled}),
		stallingLookup{stalled: "s2"},
	)
	body := "The festival takes place in Dubai. The market opens in Dubai. The race finishes in Dubai. " +
		"The museum stands in Dubai. The parade ends in Dubai."

	const deadline = 400 * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), deadline)
	defer cancel()

	start := time.Now()
	result, err := v.Verify(ctx, &domain.ContentInput{ID: "c1", Title: "t", Body: body})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), deadline)

	require.Len(t, result.Claims, 5)
	for _, claim := range result.Claims {
		assert.Equal(t, []string{"Census Bureau"}, claim.SupportingSources)
	}
	assert.Equal(t, []string{"source lookup failed: s2"}, result.Warnings)
}

func TestVerify_HTMLBodyIsReducedToText(t *testing.T) {
	t.Parallel()

	body := `<h2>Overview</h2>
<p>The festival takes place in <a href="https://example.com/dubai">Dubai</a>.</p>
<p>According to the census, the population grew 5 percent.</p>
<p>All visitors must register online.</p>`

	result := verify(t, newTestVerifier(NewStaticProvider(nil), nil), body)

	require.Len(t, result.Claims, 3)
	for _, claim := range result.Claims {
		assert.NotContains(t, claim.Claim, "<")
		assert.NotContains(t, claim.Claim, "Overview")
	}
	assert.Equal(t, domain.ClaimLocation, result.Claims[0].Type)
	assert.Equal(t, domain.ClaimStatistic, result.Claims[1].Type)
}

func TestExtractClaims_HeadingsBreakSentences(t *testing.T) {
	t.Parallel()

	claims := ExtractClaims("## Overview\n\nThe festival takes place in Dubai.")
	require.Len(t, claims, 1)
	assert.Equal(t, "The festival takes place in Dubai", claims[0].Text)
}

func TestVerify_ProviderFailureAddsWarning(t *testing.T) {
	t.Parallel()

	result := verify(t, newTestVerifier(failingProvider{}, nil), "The festival takes place in Dubai.")

	require.Len(t, result.Claims, 1)
	assert.Equal(t, 100.0, result.Claims[0].Confidence, "type check alone")
	assert.Len(t, result.Warnings, 1)
}

func TestVerify_FutureDate(t *testing.T) {
	t.Parallel()

	result := verify(t, newTestVerifier(NewStaticProvider(nil), nil), "The tower opens on 12 March 2030.")

	require.Len(t, result.Claims, 1)
	claim := result.Claims[0]
	assert.Equal(t, domain.ClaimDate, claim.Type)
	assert.Equal(t, 0.0, claim.Confidence)
	assert.Equal(t, domain.ClaimUnverified, claim.Status)
	require.NotEmpty(t, claim.Notes)
	assert.Contains(t, claim.Notes[0], "more than a year in the future")
}

func TestExtractClaims_AbsoluteLanguage(t *testing.T) {
	t.Parallel()

	claims := ExtractClaims("All visitors must register. The view is nice.")
	require.Len(t, claims, 1)
	assert.Equal(t, domain.ClaimGeneral, claims[0].Type)
	assert.Equal(t, domain.ImportanceHigh, claims[0].Importance)
	assert.Equal(t, domain.Span{Start: 0, End: 26}, claims[0].Span)
}

func TestCachedProvider(t *testing.T) {
	t.Parallel()

	next := &countingProvider{}
	cached := NewCachedProvider(next, 0, time.Minute)
	ctx := context.Background()

	for range 3 {
		sources, err := cached.ListTrustedSources(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, sources, len(DefaultSources()))
	}
	assert.Equal(t, int32(1), next.calls.Load())

	cached.Invalidate()
	_, err := cached.ListTrustedSources(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestHTTPLookup(t *testing.T) {
	t.Parallel()

	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"verdict":"supports"}`))
	}))
	t.Cleanup(srv.Close)

	lookup := NewHTTPLookup(HTTPLookupConfig{
		Endpoint:         srv.URL,
		RequestsPerSec:   1000,
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
	}, infralogger.NewNop())
	ctx := context.Background()
	claim := Claim{Text: "The population grew 5 percent.", Type: domain.ClaimStatistic}

	verdict, err := lookup.Lookup(ctx, claim, censusSource)
	require.NoError(t, err)
	assert.Equal(t, VerdictSupports, verdict)

	fail.Store(true)
	for range 2 {
		_, err = lookup.Lookup(ctx, claim, censusSource)
		require.Error(t, err)
	}
	_, err = lookup.Lookup(ctx, claim, censusSource)
	require.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
}

func TestHTTPLookup_NotFoundIsUnknown(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"no such source"}`, http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	lookup := NewHTTPLookup(HTTPLookupConfig{
		Endpoint:         srv.URL,
		RequestsPerSec:   1000,
		FailureThreshold: 1,
		OpenTimeout:      time.Minute,
	}, infralogger.NewNop())
	claim := Claim{Text: "The population grew 5 percent.", Type: domain.ClaimStatistic}

	for range 3 {
		verdict, err := lookup.Lookup(context.Background(), claim, censusSource)
		require.NoError(t, err)
		assert.Equal(t, VerdictUnknown, verdict)
	}
}
