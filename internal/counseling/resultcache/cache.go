// Package resultcache memoises worker responses in Redis.
package resultcache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"seatsathi-workers/internal/common/logger"
	"seatsathi-workers/internal/common/metrics"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "counseling:"

// Key builds "counseling:<kind>:<sha1 of parts>".
func Key(kind string, parts ...string) string {
	sum := sha1.Sum([]byte(strings.Join(parts, "\x1f")))
	return keyPrefix + kind + ":" + hex.EncodeToString(sum[:])
}

// Cache is a best-effort JSON cache. A nil *Cache or a Redis failure behaves
// as a miss, so callers always fall through to computing the value.
type Cache struct {
	client *redis.Client
	kind   string
	ttl    time.Duration
	logger logger.Logger
}

func New(client *redis.Client, kind string, ttl time.Duration, log logger.Logger) *Cache {
	if client == nil {
		return nil
	}
	return &Cache{
		client: client,
		kind:   kind,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "resultcache", "cache": kind}),
	}
}

// Key builds a key in this cache's namespace.
func (c *Cache) Key(parts ...string) string {
	if c == nil {
		return ""
	}
	return Key(c.kind, parts...)
}

// Get decodes the cached value into dst and reports whether it was found.
func (c *Cache) Get(ctx context.Context, key string, dst interface{}) bool {
	if c == nil {
		return false
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
		metrics.CacheResult(c.kind, false)
		return false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		c.logger.Warn("cache entry corrupt", map[string]interface{}{"key": key, "error": err.Error()})
		metrics.CacheResult(c.kind, false)
		return false
	}

	metrics.CacheResult(c.kind, true)
	return true
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}) {
	if c == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache encode failed", map[string]interface{}{"key": key, "error": err.Error()})
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

// Purge deletes every key in this cache's namespace and returns the count.
func (c *Cache) Purge(ctx context.Context) (int, error) {
	if c == nil {
		return 0, nil
	}

	deleted := 0
	iter := c.client.Scan(ctx, 0, keyPrefix+c.kind+":*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			n, err := c.client.Del(ctx, batch...).Result()
			if err != nil {
				return deleted, err
			}
			deleted += int(n)
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, err
	}
	if len(batch) > 0 {
		n, err := c.client.Del(ctx, batch...).Result()
		if err != nil {
			return deleted, err
		}
		deleted += int(n)
	}
	return deleted, nil
}
