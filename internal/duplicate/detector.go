// Package duplicate fingerprints content and finds exact, near and similar
// duplicates among previously stored fingerprints.
package duplicate

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	infralogger "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
)

// Similarity tiers.
const (
	ExactThreshold   = 0.95
	NearThreshold    = 0.85
	SimilarThreshold = 0.70

	defaultCorpusLimit = 500
	notDuplicateScore  = 100
)

// Config tunes the detector.
type Config struct {
	// SimilarityThreshold is the minimum key phrase Jaccard for the similar tier.
	SimilarityThreshold float64
	// CorpusLimit caps how many same-type fingerprints are compared.
	CorpusLimit int
}

// FingerprintSink accepts fingerprints to persist asynchronously.
type FingerprintSink interface {
	SubmitFingerprint(fp *domain.Fingerprint)
}

// Detector checks content against a FingerprintStore.
type Detector struct {
	store  FingerprintStore
	sink   FingerprintSink
	config Config
	logger infralogger.Logger
}

// NewDetector creates a Detector. When sink is nil new fingerprints are
// written to store inline and write failures are only logged.
func NewDetector(store FingerprintStore, sink FingerprintSink, cfg Config, logger infralogger.Logger) *Detector {
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = SimilarThreshold
	}
	if cfg.CorpusLimit <= 0 {
		cfg.CorpusLimit = defaultCorpusLimit
	}
	return &Detector{store: store, sink: sink, config: cfg, logger: logger}
}

// Check looks for an exact content hash match, then a title or semantic hash
// match, then the most similar same-type fingerprint. The first tier that
// matches wins. Content that is not a duplicate has its fingerprint stored.
// A store read failure yields a non-duplicate result with a warning.
func (d *Detector) Check(ctx context.Context, content *domain.ContentInput) (*domain.DuplicateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("check duplicates: %w", err)
	}

	fp := NewFingerprint(content)
	result := &domain.DuplicateResult{
		DuplicateType: domain.DuplicateNone,
		Score:         notDuplicateScore,
		Fingerprint:   fp,
	}

	match, err := d.findMatch(ctx, fp)
	if err != nil {
		d.logger.Warn("Fingerprint lookup failed",
			infralogger.String("content_id", content.ID),
			infralogger.Error(err),
		)
		result.Warnings = append(result.Warnings, "duplicate check unavailable: "+err.Error())
		return result, nil
	}

	if match != nil {
		result.IsDuplicate = true
		result.DuplicateType = match.kind
		result.SimilarityScore = match.similarity
		result.MatchedContentID = match.contentID
		result.Score = 0
		d.logger.Info("Duplicate content detected",
			infralogger.String("content_id", content.ID),
			infralogger.String("matched_content_id", match.contentID),
			infralogger.String("duplicate_type", string(match.kind)),
			infralogger.Float64("similarity", match.similarity),
		)
		return result, nil
	}

	d.persist(ctx, fp)
	return result, nil
}

type duplicateMatch struct {
	kind       domain.DuplicateType
	similarity float64
	contentID  string
}

func (d *Detector) findMatch(ctx context.Context, fp *domain.Fingerprint) (*duplicateMatch, error) {
	exact, err := d.store.FindByHash(ctx, domain.HashContent, fp.ContentHash)
	if err != nil {
		return nil, fmt.Errorf("find by content hash: %w", err)
	}
	if other := firstOther(exact, fp.ContentID); other != nil {
		return &duplicateMatch{kind: domain.DuplicateExact, similarity: 1, contentID: other.ContentID}, nil
	}

	for _, kind := range []domain.HashKind{domain.HashTitle, domain.HashSemantic} {
		near, findErr := d.store.FindByHash(ctx, kind, fp.Hash(kind))
		if findErr != nil {
			return nil, fmt.Errorf("find by %s hash: %w", kind, findErr)
		}
		if other := firstOther(near, fp.ContentID); other != nil {
			return &duplicateMatch{
				kind:       domain.DuplicateNear,
				similarity: max(Jaccard(fp.KeyPhrases, other.KeyPhrases), NearThreshold),
				contentID:  other.ContentID,
			}, nil
		}
	}

	corpus, err := d.store.ListByContentType(ctx, fp.ContentType, d.config.CorpusLimit)
	if err != nil {
		return nil, fmt.Errorf("list corpus: %w", err)
	}
	var best *duplicateMatch
	for i := range corpus {
		if corpus[i].ContentID == fp.ContentID {
			continue
		}
		sim := Jaccard(fp.KeyPhrases, corpus[i].KeyPhrases)
		if sim >= d.config.SimilarityThreshold && (best == nil || sim > best.similarity) {
			best = &duplicateMatch{kind: domain.DuplicateSimilar, similarity: sim, contentID: corpus[i].ContentID}
		}
	}
	return best, nil
}

// firstOther skips the submission's own earlier fingerprint so re-evaluating
// content never matches itself.
func firstOther(fps []domain.Fingerprint, contentID string) *domain.Fingerprint {
	for i := range fps {
		if fps[i].ContentID != contentID || contentID == "" {
			return &fps[i]
		}
	}
	return nil
}

func (d *Detector) persist(ctx context.Context, fp *domain.Fingerprint) {
	if fp.ContentID == "" {
		return
	}
	if d.sink != nil {
		d.sink.SubmitFingerprint(fp)
		return
	}
	if err := d.store.StoreFingerprint(ctx, fp); err != nil {
		d.logger.Error("Failed to store fingerprint",
			infralogger.String("content_id", fp.ContentID),
			infralogger.Error(err),
		)
	}
}

// ClusterStored clusters the unclustered fingerprints of contentType and
// records the assignments.
func (d *Detector) ClusterStored(ctx context.Context, contentType domain.ContentType) ([]domain.DuplicateCluster, error) {
	fps, err := d.store.ListByContentType(ctx, contentType, d.config.CorpusLimit)
	if err != nil {
		return nil, fmt.Errorf("list fingerprints: %w", err)
	}
	unclustered := fps[:0:0]
	for _, fp := range fps {
		if fp.ClusterID == "" {
			unclustered = append(unclustered, fp)
		}
	}

	clusters := Cluster(unclustered, d.config.SimilarityThreshold)
	for _, c := range clusters {
		if assignErr := d.store.AssignCluster(ctx, c.ContentIDs, c.ID); assignErr != nil {
			return nil, fmt.Errorf("assign cluster %s: %w", c.ID, assignErr)
		}
	}
	return clusters, nil
}

// Cluster groups fingerprints greedily in one pass: each fingerprint not yet
// assigned seeds a cluster and pulls in every later unassigned fingerprint at
// or above threshold similarity to the seed. Singletons are not returned.
func Cluster(fps []domain.Fingerprint, threshold float64) []domain.DuplicateCluster {
	assigned := make([]bool, len(fps))
	var clusters []domain.DuplicateCluster

	for i := range fps {
		if assigned[i] {
			continue
		}
		members := []string{fps[i].ContentID}
		for j := i + 1; j < len(fps); j++ {
			if assigned[j] {
				continue
			}
			if Jaccard(fps[i].KeyPhrases, fps[j].KeyPhrases) >= threshold {
				assigned[j] = true
				members = append(members, fps[j].ContentID)
			}
		}
		if len(members) < 2 {
			continue
		}
		assigned[i] = true
		clusters = append(clusters, domain.DuplicateCluster{
			ID:         uuid.NewString(),
			ContentIDs: members,
			KeyPhrases: fps[i].KeyPhrases,
		})
	}
	return clusters
}
