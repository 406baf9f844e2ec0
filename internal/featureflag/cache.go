package featureflag

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// CachedStore is a read-through cache in front of a Store. Flag lookups
// happen on every gated provider call, so a short TTL keeps the database
// out of the hot path without letting rollout changes go stale for long.
type CachedStore struct {
	inner Store
	rdb   *redis.Client
	ttl   time.Duration
}

const cacheKeyPrefix = "featureflag:"

// NewCachedStore wraps inner with a redis cache.
func NewCachedStore(inner Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedStore{inner: inner, rdb: rdb, ttl: ttl}
}

// GetFlag implements Store. Cache failures degrade to the inner store;
// they never surface to the caller.
func (s *CachedStore) GetFlag(ctx context.Context, name string) (*Flag, error) {
	key := cacheKeyPrefix + name

	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var flag Flag
		if err := json.Unmarshal(raw, &flag); err == nil {
			return &flag, nil
		}
		// Corrupt entry; fall through to the inner store and rewrite it.
	} else if !errors.Is(err, redis.Nil) {
		log.Warn().Err(err).Str("flag", name).Msg("feature flag cache read failed")
	}

	flag, err := s.inner.GetFlag(ctx, name)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(flag); err == nil {
		if err := s.rdb.Set(ctx, key, raw, s.ttl).Err(); err != nil {
			log.Warn().Err(err).Str("flag", name).Msg("feature flag cache write failed")
		}
	}
	return flag, nil
}

// Invalidate drops the cached record so the next read hits the store.
func (s *CachedStore) Invalidate(ctx context.Context, name string) {
	if err := s.rdb.Del(ctx, cacheKeyPrefix+name).Err(); err != nil {
		log.Warn().Err(err).Str("flag", name).Msg("feature flag cache invalidation failed")
	}
}
