package redis

import (
	"context"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/propshield/climarisk/pkg/errors"
)

var ErrCacheMiss = errors.New(errors.ErrCodeNotFound, "cache miss")

// AssessmentCache is a byte-level TTL cache backed by redis.  It satisfies
// the cache port of the assessment service.
type AssessmentCache struct {
	client     *Client
	prefix     string
	defaultTTL time.Duration
}

// CacheOption customizes an AssessmentCache.
type CacheOption func(*AssessmentCache)

func WithPrefix(prefix string) CacheOption {
	return func(c *AssessmentCache) { c.prefix = prefix }
}

func WithDefaultTTL(ttl time.Duration) CacheOption {
	return func(c *AssessmentCache) { c.defaultTTL = ttl }
}

// NewAssessmentCache builds a cache on top of an established client.  The
// key prefix defaults to the client's configured prefix.
func NewAssessmentCache(client *Client, opts ...CacheOption) *AssessmentCache {
	c := &AssessmentCache{
		client:     client,
		prefix:     client.config.KeyPrefix,
		defaultTTL: 15 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *AssessmentCache) fullKey(key string) string {
	return c.prefix + key
}

// jitterTTL spreads expirations by +/- 10% so hot keys do not expire in
// lockstep.
func (c *AssessmentCache) jitterTTL(ttl time.Duration) time.Duration {
	if ttl == 0 {
		return 0
	}
	jitter := float64(ttl) * 0.1 * (rand.Float64()*2 - 1)
	return ttl + time.Duration(jitter)
}

func (c *AssessmentCache) Get(ctx context.Context, key string) ([]byte, error) {
	rdb, err := c.client.raw()
	if err != nil {
		return nil, err
	}
	data, err := rdb.Get(ctx, c.fullKey(key)).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "failed to get from cache")
	}
	return data, nil
}

func (c *AssessmentCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	rdb, err := c.client.raw()
	if err != nil {
		return err
	}
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	if err := rdb.Set(ctx, c.fullKey(key), value, c.jitterTTL(ttl)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to set cache value")
	}
	return nil
}

func (c *AssessmentCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	rdb, err := c.client.raw()
	if err != nil {
		return err
	}
	fullKeys := make([]string, len(keys))
	for i, k := range keys {
		fullKeys[i] = c.fullKey(k)
	}
	if err := rdb.Del(ctx, fullKeys...).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to delete cache keys")
	}
	return nil
}
