package sentiment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const cacheKeyPrefix = "sentiment:"

// Cache is the subset of the go-redis client Cached needs.
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Cached memoizes the scores of a deterministic Scorer in Redis. Cache
// failures are logged and fall through to the wrapped scorer.
type Cached struct {
	next  Scorer
	cache Cache
	ttl   time.Duration
}

// NewCached wraps next with a cache whose entries expire after ttl.
func NewCached(next Scorer, cache Cache, ttl time.Duration) *Cached {
	return &Cached{next: next, cache: cache, ttl: ttl}
}

// Score implements Scorer.
func (c *Cached) Score(ctx context.Context, text string) (int, error) {
	key := cacheKey(text)

	val, err := c.cache.Get(ctx, key).Result()
	switch {
	case err == nil:
		score, convErr := strconv.Atoi(val)
		if convErr == nil {
			return score, nil
		}
		log.Warnf("[sentiment.Cached] corrupt cache entry %s: %v", key, convErr)
	case !errors.Is(err, redis.Nil):
		log.Warnf("[sentiment.Cached] cache read failed: %v", err)
	}

	score, err := c.next.Score(ctx, text)
	if err != nil {
		return 0, err
	}

	if err := c.cache.Set(ctx, key, strconv.Itoa(score), c.ttl).Err(); err != nil {
		log.Warnf("[sentiment.Cached] cache write failed: %v", err)
	}

	return score, nil
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

// NewRedisClient connects to the Redis instance at url and checks it responds.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}
