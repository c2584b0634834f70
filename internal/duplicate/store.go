package duplicate

import (
	"context"
	"sort"
	"sync"

	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
)

// FingerprintStore persists fingerprints for later comparison.
type FingerprintStore interface {
	FindByHash(ctx context.Context, kind domain.HashKind, hash string) ([]domain.Fingerprint, error)
	ListByContentType(ctx context.Context, contentType domain.ContentType, limit int) ([]domain.Fingerprint, error)
	StoreFingerprint(ctx context.Context, fp *domain.Fingerprint) error
	AssignCluster(ctx context.Context, contentIDs []string, clusterID string) error
}

// MemoryStore is an in-process FingerprintStore used by the CLI and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[string]domain.Fingerprint
	order []string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]domain.Fingerprint)}
}

// FindByHash returns fingerprints whose hash of kind equals hash, oldest first.
func (s *MemoryStore) FindByHash(_ context.Context, kind domain.HashKind, hash string) ([]domain.Fingerprint, error) {
	if hash == "" {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Fingerprint
	for _, id := range s.order {
		fp := s.byID[id]
		if fp.Hash(kind) == hash {
			out = append(out, fp)
		}
	}
	return out, nil
}

// ListByContentType returns up to limit of the most recent fingerprints of contentType.
func (s *MemoryStore) ListByContentType(
	_ context.Context,
	contentType domain.ContentType,
	limit int,
) ([]domain.Fingerprint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Fingerprint
	for i := len(s.order) - 1; i >= 0; i-- {
		fp := s.byID[s.order[i]]
		if fp.ContentType != contentType {
			continue
		}
		out = append(out, fp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// StoreFingerprint inserts or replaces the fingerprint for fp.ContentID.
func (s *MemoryStore) StoreFingerprint(_ context.Context, fp *domain.Fingerprint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[fp.ContentID]; !exists {
		s.order = append(s.order, fp.ContentID)
	}
	s.byID[fp.ContentID] = *fp
	return nil
}

// AssignCluster sets the cluster ID of every listed fingerprint.
func (s *MemoryStore) AssignCluster(_ context.Context, contentIDs []string, clusterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range contentIDs {
		if fp, ok := s.byID[id]; ok {
			fp.ClusterID = clusterID
			s.byID[id] = fp
		}
	}
	return nil
}

// Len returns the number of stored fingerprints.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// IDs returns the stored content IDs sorted.
func (s *MemoryStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := append([]string(nil), s.order...)
	sort.Strings(ids)
	return ids
}
