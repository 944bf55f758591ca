package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// tokenBucketScript atomically debits one token from a per-key bucket that
// refills at rate tokens/sec up to burst, returning {allowed, tokensLeft}.
const tokenBucketScript = `
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local data = redis.call("HMGET", key, "tokens", "last_update")
local tokens = tonumber(data[1]) or burst
local last_update = tonumber(data[2]) or now

local elapsed = now - last_update
tokens = math.min(burst, tokens + elapsed * rate)

if tokens >= 1 then
    tokens = tokens - 1
    redis.call("HMSET", key, "tokens", tokens, "last_update", now)
    redis.call("EXPIRE", key, 60)
    return {1, tokens}
else
    redis.call("HMSET", key, "tokens", tokens, "last_update", now)
    redis.call("EXPIRE", key, 60)
    return {0, tokens}
end
`

// AdapterRateLimiter enforces a per-(tenant,adapter) token bucket shared
// across every instance of the worker pool, backed by one Redis key per
// bucket. Used ahead of every outbound clearing-rail call.
type AdapterRateLimiter struct {
	keyPrefix string
}

// NewAdapterRateLimiter creates a limiter namespacing its Redis keys under prefix.
func NewAdapterRateLimiter(keyPrefix string) *AdapterRateLimiter {
	return &AdapterRateLimiter{keyPrefix: keyPrefix}
}

// Allow debits one token from the bucket identified by key, refilling at
// requestsPerSecond up to burst.
func (l *AdapterRateLimiter) Allow(ctx context.Context, key string, requestsPerSecond, burst int) (bool, error) {
	now := float64(time.Now().UnixNano()) / 1e9
	result := client.Eval(ctx, tokenBucketScript,
		[]string{l.keyPrefix + key},
		float64(requestsPerSecond),
		float64(burst),
		now,
	)
	if result.Err() != nil {
		return false, result.Err()
	}
	values, err := result.Slice()
	if err != nil {
		return false, err
	}
	if len(values) < 1 {
		return false, fmt.Errorf("unexpected token bucket result length: %d", len(values))
	}
	allowed := toInt64(values[0])
	return allowed == 1, nil
}

func toInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if i, err := strconv.ParseInt(t, 10, 64); err == nil {
			return i
		}
	}
	return 0
}
