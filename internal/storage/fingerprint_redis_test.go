package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/duplicate"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/storage"
)

var _ duplicate.FingerprintStore = (*storage.RedisFingerprintStore)(nil)

func newRedisStore(t *testing.T) *storage.RedisFingerprintStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return storage.NewRedisFingerprintStore(client, "test:fp")
}

func fingerprint(id, contentHash string, at time.Time) *domain.Fingerprint {
	return &domain.Fingerprint{
		ContentID:    id,
		ContentType:  domain.ContentTypeNews,
		ContentHash:  contentHash,
		TitleHash:    "title-" + id,
		SemanticHash: "sem-" + contentHash,
		KeyPhrases:   []string{"dubai", "metro"},
		CreatedAt:    at,
	}
}

func TestRedisFingerprintStore_FindByHashOldestFirst(t *testing.T) {
	t.Parallel()

	store := newRedisStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.StoreFingerprint(ctx, fingerprint("b", "h1", base.Add(time.Minute))))
	require.NoError(t, store.StoreFingerprint(ctx, fingerprint("a", "h1", base)))
	require.NoError(t, store.StoreFingerprint(ctx, fingerprint("c", "h2", base)))

	got, err := store.FindByHash(ctx, domain.HashContent, "h1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ContentID)
	assert.Equal(t, "b", got[1].ContentID)
	assert.Equal(t, []string{"dubai", "metro"}, got[0].KeyPhrases)

	none, err := store.FindByHash(ctx, domain.HashContent, "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRedisFingerprintStore_ReplaceDropsOldIndexes(t *testing.T) {
	t.Parallel()

	store := newRedisStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.StoreFingerprint(ctx, fingerprint("a", "old", now)))
	require.NoError(t, store.StoreFingerprint(ctx, fingerprint("a", "new", now)))

	old, err := store.FindByHash(ctx, domain.HashContent, "old")
	require.NoError(t, err)
	assert.Empty(t, old)

	fresh, err := store.FindByHash(ctx, domain.HashContent, "new")
	require.NoError(t, err)
	assert.Len(t, fresh, 1)
}

func TestRedisFingerprintStore_ListByContentTypeNewestFirst(t *testing.T) {
	t.Parallel()

	store := newRedisStore(t)
	ctx := context.Background()
	base := time.Now()

	for i, id := range []string{"one", "two", "three"} {
		require.NoError(t, store.StoreFingerprint(ctx, fingerprint(id, id, base.Add(time.Duration(i)*time.Second))))
	}
	tourism := fingerprint("tour", "tour", base)
	tourism.ContentType = domain.ContentTypeTourism
	require.NoError(t, store.StoreFingerprint(ctx, tourism))

	got, err := store.ListByContentType(ctx, domain.ContentTypeNews, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "three", got[0].ContentID)
	assert.Equal(t, "two", got[1].ContentID)

	all, err := store.ListByContentType(ctx, domain.ContentTypeNews, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRedisFingerprintStore_AssignCluster(t *testing.T) {
	t.Parallel()

	store := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.StoreFingerprint(ctx, fingerprint("a", "h", time.Now())))
	require.NoError(t, store.AssignCluster(ctx, []string{"a", "missing"}, "cluster-1"))

	got, err := store.FindByHash(ctx, domain.HashContent, "h")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "cluster-1", got[0].ClusterID)
}

func TestRedisFingerprintStore_WithDetector(t *testing.T) {
	t.Parallel()

	store := newRedisStore(t)
	detector := duplicate.NewDetector(store, nil, duplicate.Config{}, nopLogger())
	ctx := context.Background()

	content := &domain.ContentInput{
		ID:          "first",
		Title:       "Dubai Metro extends Blue Line",
		Body:        "The Roads and Transport Authority confirmed the Blue Line extension will open next year.",
		ContentType: domain.ContentTypeNews,
	}
	first, err := detector.Check(ctx, content)
	require.NoError(t, err)
	assert.False(t, first.IsDuplicate)

	again := *content
	again.ID = "second"
	second, err := detector.Check(ctx, &again)
	require.NoError(t, err)
	assert.True(t, second.IsDuplicate)
	assert.Equal(t, domain.DuplicateExact, second.DuplicateType)
	assert.Equal(t, "first", second.MatchedContentID)
}
