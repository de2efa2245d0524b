package schemacache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ucpcheck:schema:"

// Redis is a shared cache for deployments where several validator processes
// should reuse each other's fetches. Expiry is delegated to the Redis TTL, so
// Get never has to drop anything itself.
//
// Redis faults degrade to cache misses: the validator then just refetches,
// which is the same worst case as the in-memory cache's duplicate-fetch race.
type Redis struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{
		client: client,
		logger: slog.Default().With("component", "schemacache"),
	}
}

// Get implements Cache.
func (r *Redis) Get(ctx context.Context, url string, now time.Time) (*Entry, bool) {
	data, err := r.client.Get(ctx, redisKeyPrefix+url).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn("redis get failed, treating as miss", "url", url, "error", err)
		}
		return nil, false
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		r.logger.Warn("corrupt cache entry, treating as miss", "url", url, "error", err)
		return nil, false
	}
	if entry.Expired(now) {
		return nil, false
	}
	return &entry, true
}

// Set implements Cache. The key TTL mirrors the entry expiry so Redis
// self-cleans.
func (r *Redis) Set(ctx context.Context, entry *Entry) {
	data, err := json.Marshal(entry)
	if err != nil {
		r.logger.Warn("cache entry not serializable, skipping", "url", entry.URL, "error", err)
		return
	}
	ttl := time.Until(entry.ExpiresAt)
	if ttl <= 0 {
		return
	}
	if err := r.client.Set(ctx, redisKeyPrefix+entry.URL, data, ttl).Err(); err != nil {
		r.logger.Warn("redis set failed, entry not shared", "url", entry.URL, "error", err)
	}
}
