// Package factcheck extracts factual claims from content and scores each
// against trusted sources and type-specific plausibility checks.
package factcheck

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	infralogger "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/patterns"
)

const (
	neutralConfidence      = 50
	noClaimsConfidence     = 100
	verifiedThreshold      = 80
	manualReviewBelow      = 50
	defaultTypeCheckWeight = 50
	defaultLookupWorkers   = 8

	// lookupBudgetShare is the part of the caller's remaining deadline that
	// source lookups may spend.
	lookupBudgetShare = 0.5
)

// Config tunes the verifier.
type Config struct {
	// SourceTypes restricts which trusted sources are consulted. Empty means all.
	SourceTypes []domain.SourceType
	// TypeCheckWeight is the reliability a passed type check is worth.
	TypeCheckWeight float64
	// LookupWorkers bounds concurrent source lookups.
	LookupWorkers int
}

// Verifier scores the claims in content. Safe for concurrent use when its
// provider and lookup are.
type Verifier struct {
	provider SourceProvider
	lookup   SourceLookup
	config   Config
	logger   infralogger.Logger
	now      func() time.Time
}

// NewVerifier creates a Verifier. A nil lookup defaults to KeywordLookup.
func NewVerifier(provider SourceProvider, lookup SourceLookup, cfg Config, logger infralogger.Logger) *Verifier {
	if lookup == nil {
		lookup = KeywordLookup{}
	}
	if cfg.TypeCheckWeight <= 0 {
		cfg.TypeCheckWeight = defaultTypeCheckWeight
	}
	if cfg.LookupWorkers <= 0 {
		cfg.LookupWorkers = defaultLookupWorkers
	}
	return &Verifier{
		provider: provider,
		lookup:   lookup,
		config:   cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Verify extracts claims from the body of content and verifies each.
// Source failures never fail the call: they leave claims nearer the neutral
// confidence and add a warning.
func (v *Verifier) Verify(ctx context.Context, content *domain.ContentInput) (*domain.FactCheckResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("verify facts: %w", err)
	}

	result := &domain.FactCheckResult{}
	claims := ExtractClaims(patterns.PlainText(content.Body))
	if len(claims) == 0 {
		result.Confidence = noClaimsConfidence
		return result, nil
	}

	sources, err := v.provider.ListTrustedSources(ctx, v.config.SourceTypes)
	if err != nil {
		v.logger.Warn("Trusted sources unavailable",
			infralogger.String("content_id", content.ID),
			infralogger.Error(err),
		)
		result.Warnings = append(result.Warnings, "trusted sources unavailable; claims left unverified")
		sources = nil
	}

	outcomes := v.lookupAll(ctx, claims, sources)
	failed := make(map[string]bool)
	var weighted, totalWeight float64
	for i, claim := range claims {
		cv := v.verifyClaim(claim, sources, outcomes[i], failed)
		switch cv.Status {
		case domain.ClaimVerified:
			result.VerifiedCount++
		case domain.ClaimDisputed:
			result.DisputedCount++
		default:
			result.UnverifiedCount++
		}
		w := cv.Importance.Weight()
		weighted += w * cv.Confidence
		totalWeight += w
		result.Claims = append(result.Claims, cv)
	}
	for _, id := range slices.Sorted(maps.Keys(failed)) {
		result.Warnings = append(result.Warnings, "source lookup failed: "+id)
	}

	result.Confidence = domain.RoundScore(weighted / totalWeight)
	result.RequiresManualReview = result.DisputedCount > 0 || result.Confidence < manualReviewBelow

	v.logger.Debug("Facts verified",
		infralogger.String("content_id", content.ID),
		infralogger.Int("claims", len(claims)),
		infralogger.Int("verified", result.VerifiedCount),
		infralogger.Int("disputed", result.DisputedCount),
		infralogger.Float64("confidence", result.Confidence),
	)
	return result, nil
}

type lookupOutcome struct {
	verdict Verdict
	err     error
}

// lookupAll asks every source about every claim concurrently. Lookups share a
// budget cut from the caller's deadline. Unfinished lookups come back as errors.
func (v *Verifier) lookupAll(ctx context.Context, claims []Claim, sources []domain.TrustedSource) [][]lookupOutcome {
	outcomes := make([][]lookupOutcome, len(claims))
	for i := range outcomes {
		outcomes[i] = make([]lookupOutcome, len(sources))
	}
	if len(sources) == 0 {
		return outcomes
	}

	lookupCtx, cancel := lookupBudget(ctx)
	defer cancel()

	var g errgroup.Group
	g.SetLimit(v.config.LookupWorkers)
	for i, claim := range claims {
		for j, src := range sources {
			g.Go(func() error {
				verdict, err := v.lookup.Lookup(lookupCtx, claim, src)
				outcomes[i][j] = lookupOutcome{verdict: verdict, err: err}
				return nil
			})
		}
	}
	_ = g.Wait()
	return outcomes
}

func lookupBudget(ctx context.Context) (context.Context, context.CancelFunc) {
	deadline, ok := ctx.Deadline()
	if !ok {
		return context.WithCancel(ctx)
	}
	budget := time.Duration(float64(time.Until(deadline)) * lookupBudgetShare)
	return context.WithTimeout(ctx, budget)
}

// verifyClaim nets supporting against contradicting reliability plus the type
// check, and maps the net from [-max, max] onto [0, 100] with no evidence
// landing on the neutral midpoint.
func (v *Verifier) verifyClaim(
	claim Claim,
	sources []domain.TrustedSource,
	outcomes []lookupOutcome,
	failed map[string]bool,
) domain.ClaimVerification {
	span := claim.Span
	cv := domain.ClaimVerification{
		Claim:      claim.Text,
		Type:       claim.Type,
		Importance: claim.Importance,
		Location:   &span,
	}

	var net, maxScore float64
	for j, src := range sources {
		maxScore += src.ReliabilityScore
		if err := outcomes[j].err; err != nil {
			failed[src.ID] = true
			v.logger.Debug("Source lookup failed",
				infralogger.String("source_id", src.ID),
				infralogger.Error(err),
			)
			continue
		}
		switch outcomes[j].verdict {
		case VerdictSupports:
			net += src.ReliabilityScore
			cv.SupportingSources = append(cv.SupportingSources, src.Name)
		case VerdictContradicts:
			net -= src.ReliabilityScore
			cv.ContradictingSources = append(cv.ContradictingSources, src.Name)
		}
	}

	check := checkClaim(claim, v.now())
	if check.applicable {
		maxScore += v.config.TypeCheckWeight
		net += check.adjustment * v.config.TypeCheckWeight
	}
	if check.note != "" {
		cv.Notes = append(cv.Notes, check.note)
	}

	cv.Confidence = neutralConfidence
	if maxScore > 0 {
		cv.Confidence = domain.RoundScore(neutralConfidence + neutralConfidence*net/maxScore)
	}

	switch {
	case cv.Confidence >= verifiedThreshold:
		cv.Status = domain.ClaimVerified
	case len(cv.ContradictingSources) > len(cv.SupportingSources):
		cv.Status = domain.ClaimDisputed
	default:
		cv.Status = domain.ClaimUnverified
	}
	return cv
}
