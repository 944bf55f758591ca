package clearing

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"payorch.backend/internal/domain/entities"
)

// tokenBucketScript refills and consumes a Redis-backed token bucket
// atomically: KEYS[1] is the bucket key, ARGV is (capacity, refillPerSecond,
// now_ms, requested). Returns 1 if the request is admitted, 0 otherwise.
const tokenBucketScript = `
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local refillPerSec = tonumber(ARGV[2])
local nowMs = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])

local bucket = redis.call("HMGET", key, "tokens", "ts")
local tokens = tonumber(bucket[1])
local ts = tonumber(bucket[2])
if tokens == nil then
  tokens = capacity
  ts = nowMs
end

local elapsedSec = math.max(0, (nowMs - ts) / 1000)
tokens = math.min(capacity, tokens + elapsedSec * refillPerSec)

local allowed = 0
if tokens >= requested then
  tokens = tokens - requested
  allowed = 1
end

redis.call("HMSET", key, "tokens", tokens, "ts", nowMs)
redis.call("EXPIRE", key, 60)
return allowed
`

// RateLimiter enforces each adapter's configured token-bucket rate limit
// using a Lua script so concurrent saga workers across processes share one
// consistent view of the bucket.
type RateLimiter struct {
	client *redis.Client
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow reports whether a call to adapterID may proceed right now under cfg's
// configured rate limit. A RateLimit of zero RequestsPerSecond means
// unlimited, so no Redis round trip is made.
func (r *RateLimiter) Allow(ctx context.Context, tenantID string, adapterID entities.ClearingAdapterID, cfg entities.RateLimitConfig) (bool, error) {
	if cfg.RequestsPerSecond <= 0 {
		return true, nil
	}
	capacity := cfg.Burst
	if capacity <= 0 {
		capacity = cfg.RequestsPerSecond
	}

	key := fmt.Sprintf("ratelimit:%s:%s", tenantID, adapterID)
	res, err := r.client.Eval(ctx, tokenBucketScript, []string{key},
		capacity, cfg.RequestsPerSecond, time.Now().UnixMilli(), 1).Result()
	if err != nil {
		return false, err
	}
	allowed, _ := res.(int64)
	return allowed == 1, nil
}
