package redis

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	versionSuffix = ":version"
	// versionTTL bounds how long an invalidation counter outlives its entry.
	versionTTL = 24 * time.Hour
)

// setIfVersion writes KEYS[1] only while the invalidation counter in KEYS[2]
// still holds the value the caller read before loading the entry.
var setIfVersion = goredis.NewScript(`
local current = redis.call('GET', KEYS[2])
if not current then
	current = '0'
end
if current ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

// ViewCache is a generic JSON-backed Redis cache for read models.
// Bind it to a specific type T; each instance holds a Redis client and an
// optional TTL (pass 0 for keys that should not expire).
type ViewCache[T any] struct {
	client *goredis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewViewCache creates a ViewCache backed by the provided Redis client.
func NewViewCache[T any](client *goredis.Client, ttl time.Duration, logger *zap.Logger) *ViewCache[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ViewCache[T]{client: client, ttl: ttl, logger: logger.Named("redis.cache")}
}

// Get retrieves and unmarshals a value from Redis.
// Returns (nil, false) on any miss or deserialisation error.
func (c *ViewCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.Warn("cache entry is not valid JSON", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &v, true
}

// Set marshals value and stores it in Redis under key.
// Errors are logged rather than returned; a cache write miss is non-fatal.
func (c *ViewCache[T]) Set(ctx context.Context, key string, value *T) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Version returns the invalidation counter of key. Read it before loading the
// value from the source of truth and hand it to SetIfVersion. ok is false when
// Redis cannot be read, in which case the value must not be cached.
func (c *ViewCache[T]) Version(ctx context.Context, key string) (version string, ok bool) {
	version, err := c.client.Get(ctx, key+versionSuffix).Result()
	if err == goredis.Nil {
		return "0", true
	}
	if err != nil {
		c.logger.Warn("cache version read failed", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return version, true
}

// SetIfVersion stores value unless key was invalidated after version was read.
// It reports whether the value was written.
func (c *ViewCache[T]) SetIfVersion(ctx context.Context, key, version string, value *T) bool {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("cache marshal failed", zap.String("key", key), zap.Error(err))
		return false
	}
	written, err := setIfVersion.Run(ctx, c.client,
		[]string{key, key + versionSuffix},
		version, data, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return written == 1
}

// Invalidate drops key and bumps its invalidation counter, so fills that
// loaded the value before this call cannot write it back.
func (c *ViewCache[T]) Invalidate(ctx context.Context, key string) {
	_, err := c.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Incr(ctx, key+versionSuffix)
		pipe.Expire(ctx, key+versionSuffix, versionTTL)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		c.logger.Error("cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}
