// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/vidtube/internal/platform/constants"
)

// RedisCountsCache implements [CountsCache] using Redis.
type RedisCountsCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewCountsCache creates a Redis-backed [CountsCache]. A non-positive ttl
// falls back to constants.ChannelCacheTTL.
func NewCountsCache(client redis.Cmdable, ttl time.Duration) *RedisCountsCache {
	if ttl <= 0 {
		ttl = constants.ChannelCacheTTL
	}
	return &RedisCountsCache{client: client, ttl: ttl}
}

func countsKey(channelID string) string {
	return constants.RedisPrefixChannel + channelID + ":counts"
}

/*
Get retrieves cached counts for a channel.

Returns:
  - *SubscriptionCounts: nil on a cache miss
  - error: Connectivity or decoding errors
*/
func (cache *RedisCountsCache) Get(context context.Context, channelID string) (*SubscriptionCounts, error) {
	raw, err := cache.client.Get(context, countsKey(channelID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis_channel_counts_get_failed: %w", err)
	}

	var counts SubscriptionCounts
	if err := json.Unmarshal(raw, &counts); err != nil {
		return nil, fmt.Errorf("redis_channel_counts_decode_failed: %w", err)
	}
	return &counts, nil
}

/*
Set stores counts for the configured TTL.
*/
func (cache *RedisCountsCache) Set(context context.Context, channelID string, counts SubscriptionCounts) error {
	raw, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("redis_channel_counts_encode_failed: %w", err)
	}

	if err := cache.client.Set(context, countsKey(channelID), raw, cache.ttl).Err(); err != nil {
		return fmt.Errorf("redis_channel_counts_set_failed: %w", err)
	}
	return nil
}
