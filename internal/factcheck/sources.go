package factcheck

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
)

// SourceProvider lists trusted sources, optionally restricted to types.
type SourceProvider interface {
	ListTrustedSources(ctx context.Context, types []domain.SourceType) ([]domain.TrustedSource, error)
}

// StaticProvider serves a fixed source table.
type StaticProvider struct {
	sources []domain.TrustedSource
}

// NewStaticProvider creates a provider over sources.
func NewStaticProvider(sources []domain.TrustedSource) *StaticProvider {
	return &StaticProvider{sources: sources}
}

// ListTrustedSources returns the active sources matching types.
func (p *StaticProvider) ListTrustedSources(_ context.Context, types []domain.SourceType) ([]domain.TrustedSource, error) {
	out := make([]domain.TrustedSource, 0, len(p.sources))
	for _, s := range p.sources {
		if s.Active && (len(types) == 0 || slices.Contains(types, s.SourceType)) {
			out = append(out, s)
		}
	}
	return out, nil
}

const (
	defaultCacheSize = 64
	defaultCacheTTL  = 5 * time.Minute
)

// CachedProvider fronts a SourceProvider with an expiring LRU so evaluations
// read a cached table instead of the database.
type CachedProvider struct {
	next  SourceProvider
	cache *expirable.LRU[string, []domain.TrustedSource]
}

// NewCachedProvider wraps next. Non-positive size or ttl take defaults.
func NewCachedProvider(next SourceProvider, size int, ttl time.Duration) *CachedProvider {
	if size <= 0 {
		size = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedProvider{
		next:  next,
		cache: expirable.NewLRU[string, []domain.TrustedSource](size, nil, ttl),
	}
}

// ListTrustedSources serves from cache, loading through next on a miss.
func (p *CachedProvider) ListTrustedSources(ctx context.Context, types []domain.SourceType) ([]domain.TrustedSource, error) {
	key := cacheKey(types)
	if sources, ok := p.cache.Get(key); ok {
		return sources, nil
	}
	sources, err := p.next.ListTrustedSources(ctx, types)
	if err != nil {
		return nil, fmt.Errorf("list trusted sources: %w", err)
	}
	p.cache.Add(key, sources)
	return sources, nil
}

// Invalidate drops every cached table, e.g. after an admin edit.
func (p *CachedProvider) Invalidate() {
	p.cache.Purge()
}

func cacheKey(types []domain.SourceType) string {
	if len(types) == 0 {
		return "*"
	}
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	slices.Sort(names)
	return strings.Join(names, ",")
}

// DefaultSources is the built-in trusted source table used when no
// repository is configured.
func DefaultSources() []domain.TrustedSource {
	return []domain.TrustedSource{
		{
			ID: "wam", Name: "Emirates News Agency", SourceType: domain.SourceNews,
			URL: "https://www.wam.ae", ReliabilityScore: 95, Active: true,
			Keywords: []string{"uae", "emirates", "federal", "ministry", "sheikh", "cabinet", "announced"},
		},
		{
			ID: "dubai-media-office", Name: "Dubai Media Office", SourceType: domain.SourceGovernment,
			URL: "https://www.mediaoffice.ae", ReliabilityScore: 95, Active: true,
			Keywords: []string{"dubai", "government", "rta", "dewa", "municipality", "expo", "metro"},
		},
		{
			ID: "fcsc", Name: "Federal Competitiveness and Statistics Centre", SourceType: domain.SourceGovernment,
			URL: "https://fcsc.gov.ae", ReliabilityScore: 90, Active: true,
			Keywords: []string{"population", "statistics", "percent", "gdp", "census", "growth", "inflation"},
		},
		{
			ID: "dubai-statistics", Name: "Dubai Statistics Center", SourceType: domain.SourceGovernment,
			URL: "https://www.dsc.gov.ae", ReliabilityScore: 85, Active: true,
			Keywords: []string{"dubai", "population", "visitors", "tourism", "statistics", "residents"},
		},
		{
			ID: "dubai-tourism", Name: "Dubai Department of Economy and Tourism", SourceType: domain.SourceOrganization,
			URL: "https://www.visitdubai.com", ReliabilityScore: 80, Active: true,
			Keywords: []string{"tourism", "visitors", "hotel", "festival", "events", "attractions"},
		},
		{
			ID: "uaeu", Name: "United Arab Emirates University", SourceType: domain.SourceAcademic,
			URL: "https://www.uaeu.ac.ae", ReliabilityScore: 75, Active: true,
			Keywords: []string{"study", "research", "university", "survey", "students"},
		},
	}
}
