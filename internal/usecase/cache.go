package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache TTLs. Lists churn faster than single documents.
const (
	cacheTTLDocument = 5 * time.Minute
	cacheTTLList     = 1 * time.Minute
)

// cacheGet unmarshals the cached value into dest. Returns false on any
// miss, redis being absent included.
func cacheGet(ctx context.Context, rdb *redis.Client, key string, dest interface{}) bool {
	if rdb == nil {
		return false
	}
	val, err := rdb.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(val), dest) == nil
}

func cacheSet(ctx context.Context, rdb *redis.Client, key string, value interface{}, ttl time.Duration) {
	if rdb == nil {
		return
	}
	if data, err := json.Marshal(value); err == nil {
		_ = rdb.Set(ctx, key, data, ttl).Err()
	}
}

func cacheDel(ctx context.Context, rdb *redis.Client, keys ...string) {
	if rdb == nil || len(keys) == 0 {
		return
	}
	_ = rdb.Del(ctx, keys...).Err()
}

// cacheDelPattern drops every key matching pattern. Used for list
// caches whose keys embed filter values.
func cacheDelPattern(ctx context.Context, rdb *redis.Client, pattern string) {
	if rdb == nil {
		return
	}
	iter := rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		_ = rdb.Del(ctx, iter.Val()).Err()
	}
}
