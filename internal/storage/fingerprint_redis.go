package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
)

const defaultKeyPrefix = "quality:fp"

var indexedHashes = []domain.HashKind{domain.HashContent, domain.HashTitle, domain.HashSemantic, domain.HashURL}

// RedisFingerprintStore keeps fingerprints as JSON values with sorted-set
// indexes per hash and per content type, scored by creation time.
type RedisFingerprintStore struct {
	client *redis.Client
	prefix string
}

// NewRedisFingerprintStore creates a store; an empty prefix uses "quality:fp".
func NewRedisFingerprintStore(client *redis.Client, prefix string) *RedisFingerprintStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisFingerprintStore{client: client, prefix: prefix}
}

func (s *RedisFingerprintStore) docKey(contentID string) string {
	return s.prefix + ":doc:" + contentID
}

func (s *RedisFingerprintStore) hashKey(kind domain.HashKind, hash string) string {
	return s.prefix + ":hash:" + string(kind) + ":" + hash
}

func (s *RedisFingerprintStore) typeKey(ct domain.ContentType) string {
	return s.prefix + ":type:" + string(ct)
}

// FindByHash returns fingerprints whose hash of kind equals hash, oldest first.
func (s *RedisFingerprintStore) FindByHash(
	ctx context.Context,
	kind domain.HashKind,
	hash string,
) ([]domain.Fingerprint, error) {
	if hash == "" {
		return nil, nil
	}
	ids, err := s.client.ZRange(ctx, s.hashKey(kind, hash), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("find fingerprints by %s hash: %w", kind, err)
	}
	return s.load(ctx, ids)
}

// ListByContentType returns up to limit of the most recent fingerprints of contentType.
func (s *RedisFingerprintStore) ListByContentType(
	ctx context.Context,
	contentType domain.ContentType,
	limit int,
) ([]domain.Fingerprint, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	ids, err := s.client.ZRevRange(ctx, s.typeKey(contentType), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("list fingerprints for %s: %w", contentType, err)
	}
	return s.load(ctx, ids)
}

func (s *RedisFingerprintStore) load(ctx context.Context, ids []string) ([]domain.Fingerprint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.docKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load fingerprints: %w", err)
	}

	out := make([]domain.Fingerprint, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var fp domain.Fingerprint
		if err = json.Unmarshal([]byte(raw), &fp); err != nil {
			return nil, fmt.Errorf("decode fingerprint %s: %w", ids[i], err)
		}
		out = append(out, fp)
	}
	return out, nil
}

// StoreFingerprint inserts or replaces the fingerprint for fp.ContentID,
// dropping index entries of the replaced version.
func (s *RedisFingerprintStore) StoreFingerprint(ctx context.Context, fp *domain.Fingerprint) error {
	if fp.CreatedAt.IsZero() {
		fp.CreatedAt = time.Now().UTC()
	}
	doc, err := json.Marshal(fp)
	if err != nil {
		return fmt.Errorf("marshal fingerprint: %w", err)
	}

	previous, err := s.get(ctx, fp.ContentID)
	if err != nil {
		return err
	}

	score := float64(fp.CreatedAt.UnixNano())
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if previous != nil {
			for _, kind := range indexedHashes {
				if h := previous.Hash(kind); h != "" {
					pipe.ZRem(ctx, s.hashKey(kind, h), fp.ContentID)
				}
			}
			pipe.ZRem(ctx, s.typeKey(previous.ContentType), fp.ContentID)
		}
		pipe.Set(ctx, s.docKey(fp.ContentID), doc, 0)
		for _, kind := range indexedHashes {
			if h := fp.Hash(kind); h != "" {
				pipe.ZAdd(ctx, s.hashKey(kind, h), redis.Z{Score: score, Member: fp.ContentID})
			}
		}
		pipe.ZAdd(ctx, s.typeKey(fp.ContentType), redis.Z{Score: score, Member: fp.ContentID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("store fingerprint %s: %w", fp.ContentID, err)
	}
	return nil
}

func (s *RedisFingerprintStore) get(ctx context.Context, contentID string) (*domain.Fingerprint, error) {
	raw, err := s.client.Get(ctx, s.docKey(contentID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get fingerprint %s: %w", contentID, err)
	}
	var fp domain.Fingerprint
	if err = json.Unmarshal(raw, &fp); err != nil {
		return nil, fmt.Errorf("decode fingerprint %s: %w", contentID, err)
	}
	return &fp, nil
}

// AssignCluster sets the cluster ID of every listed fingerprint that exists.
func (s *RedisFingerprintStore) AssignCluster(ctx context.Context, contentIDs []string, clusterID string) error {
	fps, err := s.load(ctx, contentIDs)
	if err != nil {
		return err
	}

	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i := range fps {
			fps[i].ClusterID = clusterID
			doc, marshalErr := json.Marshal(&fps[i])
			if marshalErr != nil {
				return fmt.Errorf("marshal fingerprint: %w", marshalErr)
			}
			pipe.Set(ctx, s.docKey(fps[i].ContentID), doc, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("assign cluster %s: %w", clusterID, err)
	}
	return nil
}
