package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ratelimitcore/rlengine/ratelimiter"
)

// RedisStore implements ratelimiter.Store using Redis as the backend. It is
// the production store for a horizontally-scaled gateway fleet: every
// instance shares one logical quota per client because the atomic ops below
// run as single round-trip Lua scripts on the Redis server, not as
// client-side read-modify-write sequences.
type RedisStore struct {
	client  *redis.Client
	metrics ratelimiter.Metrics

	incrWithLimitScript *redis.Script
	tokenBucketScript   *redis.Script
	leakyBucketScript   *redis.Script
}

// RedisOption configures a RedisStore via the functional-options pattern.
type RedisOption func(*RedisStore)

// WithMetrics records per-operation round-trip latency on m. Without this
// option latency simply isn't observed; correctness is unaffected either way.
func WithMetrics(m ratelimiter.Metrics) RedisOption {
	return func(s *RedisStore) {
		if m != nil {
			s.metrics = m
		}
	}
}

type noopStoreMetrics struct{}

func (noopStoreMetrics) ObserveDecision(domain string, keyType ratelimiter.KeyType, algorithm string, allowed bool) {
}
func (noopStoreMetrics) ObserveStoreLatency(op string, d time.Duration) {}

// NewRedis creates a RedisStore over client and pre-compiles its Lua
// scripts: atomic increment-with-limit, token bucket refill-and-take, and
// leaky bucket leak-and-enqueue. Folding leaky bucket into one script
// closes the race a two-step GET-then-SET sequence would leave open
// between concurrent requests to the same key.
func NewRedis(client *redis.Client, opts ...RedisOption) *RedisStore {
	const incrWithLimitLua = `
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window_ms = tonumber(ARGV[2])

local current = tonumber(redis.call('GET', key) or '0')

if current < limit then
	local new_count = redis.call('INCR', key)
	if new_count == 1 then
		redis.call('PEXPIRE', key, window_ms)
	end
	local ttl = redis.call('PTTL', key)
	return {1, new_count, ttl}
else
	local ttl = redis.call('PTTL', key)
	return {0, current, ttl}
end
`

	const tokenBucketLua = `
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local entry = redis.call('HMGET', key, 'tokens', 'last_updated')
local tokens = tonumber(entry[1])
local last_updated = tonumber(entry[2])
if tokens == nil then
	tokens = capacity
	last_updated = now
end

local elapsed = now - last_updated
if elapsed > 0 then
	tokens = math.min(capacity, tokens + elapsed * rate)
end

local allowed = 0
if tokens >= 1 then
	tokens = tokens - 1
	allowed = 1
end

redis.call('HSET', key, 'tokens', tokens, 'last_updated', now)
redis.call('EXPIRE', key, 3600)

return {allowed, tostring(tokens)}
`

	const leakyBucketLua = `
local key = KEYS[1]
local queue_capacity = tonumber(ARGV[1])
local outflow_rate = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local window_seconds = tonumber(ARGV[4])

local entry = redis.call('HMGET', key, 'queue_count', 'last_leak')
local queue_count = tonumber(entry[1])
local last_leak = tonumber(entry[2])
if queue_count == nil then
	queue_count = 0
	last_leak = now
end

local elapsed = now - last_leak
local leaked = math.floor(elapsed * outflow_rate)
queue_count = math.max(0, queue_count - leaked)

local allowed = 0
if queue_count < queue_capacity then
	queue_count = queue_count + 1
	allowed = 1
end

redis.call('HSET', key, 'queue_count', queue_count, 'last_leak', now)
redis.call('EXPIRE', key, window_seconds)

return {allowed, queue_count}
`

	s := &RedisStore{
		client:              client,
		metrics:             noopStoreMetrics{},
		incrWithLimitScript: redis.NewScript(incrWithLimitLua),
		tokenBucketScript:   redis.NewScript(tokenBucketLua),
		leakyBucketScript:   redis.NewScript(leakyBucketLua),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func wrapUnavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %v", ratelimiter.ErrStoreUnavailable, op, err)
}

func (s *RedisStore) observeLatency(op string, start time.Time) {
	s.metrics.ObserveStoreLatency(op, time.Since(start))
}

func (s *RedisStore) IncrWithLimit(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, time.Duration, error) {
	defer s.observeLatency("incr_with_limit", time.Now())
	res, err := s.incrWithLimitScript.Run(ctx, s.client, []string{key}, limit, window.Milliseconds()).Result()
	if err != nil {
		return false, 0, 0, wrapUnavailable("incr_with_limit", err)
	}
	arr, ok := res.([]interface{})
	if !ok || len(arr) < 3 {
		return false, 0, 0, fmt.Errorf("%w: incr_with_limit: unexpected script reply", ratelimiter.ErrStoreUnavailable)
	}
	allowed := arr[0].(int64) == 1
	count := arr[1].(int64)
	ttlMs := arr[2].(int64)
	if ttlMs < 0 {
		ttlMs = window.Milliseconds()
	}
	return allowed, count, time.Duration(ttlMs) * time.Millisecond, nil
}

func (s *RedisStore) TokenBucketTake(ctx context.Context, key string, capacity int64, refillRate float64, now time.Time) (bool, float64, error) {
	defer s.observeLatency("token_bucket_take", time.Now())
	nowSeconds := float64(now.UnixNano()) / 1e9
	res, err := s.tokenBucketScript.Run(ctx, s.client, []string{key}, capacity, refillRate, nowSeconds).Result()
	if err != nil {
		return false, 0, wrapUnavailable("token_bucket_take", err)
	}
	arr, ok := res.([]interface{})
	if !ok || len(arr) < 2 {
		return false, 0, fmt.Errorf("%w: token_bucket_take: unexpected script reply", ratelimiter.ErrStoreUnavailable)
	}
	allowed := arr[0].(int64) == 1
	tokensStr, _ := arr[1].(string)
	var tokens float64
	fmt.Sscanf(tokensStr, "%g", &tokens)
	return allowed, tokens, nil
}

func (s *RedisStore) LeakyBucketTake(ctx context.Context, key string, queueCapacity int64, outflowRate float64, windowSeconds int64, now time.Time) (bool, int64, error) {
	defer s.observeLatency("leaky_bucket_take", time.Now())
	nowSeconds := float64(now.UnixNano()) / 1e9
	res, err := s.leakyBucketScript.Run(ctx, s.client, []string{key}, queueCapacity, outflowRate, nowSeconds, windowSeconds).Result()
	if err != nil {
		return false, 0, wrapUnavailable("leaky_bucket_take", err)
	}
	arr, ok := res.([]interface{})
	if !ok || len(arr) < 2 {
		return false, 0, fmt.Errorf("%w: leaky_bucket_take: unexpected script reply", ratelimiter.ErrStoreUnavailable)
	}
	allowed := arr[0].(int64) == 1
	queueCount := arr[1].(int64)
	return allowed, queueCount, nil
}

func (s *RedisStore) ZAdd(ctx context.Context, key string, score float64, member string) error {
	defer s.observeLatency("zadd", time.Now())
	err := s.client.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err()
	return wrapUnavailable("zadd", err)
}

func (s *RedisStore) ZRemRangeByScore(ctx context.Context, key string, min, max float64) error {
	defer s.observeLatency("zremrangebyscore", time.Now())
	err := s.client.ZRemRangeByScore(ctx, key, fmt.Sprintf("%f", min), fmt.Sprintf("%f", max)).Err()
	return wrapUnavailable("zremrangebyscore", err)
}

func (s *RedisStore) ZCard(ctx context.Context, key string) (int64, error) {
	defer s.observeLatency("zcard", time.Now())
	n, err := s.client.ZCard(ctx, key).Result()
	return n, wrapUnavailable("zcard", err)
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	defer s.observeLatency("get", time.Now())
	v, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return v, wrapUnavailable("get", err)
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	defer s.observeLatency("set", time.Now())
	err := s.client.Set(ctx, key, value, ttl).Err()
	return wrapUnavailable("set", err)
}

func (s *RedisStore) Incr(ctx context.Context, key string) (int64, error) {
	defer s.observeLatency("incr", time.Now())
	n, err := s.client.Incr(ctx, key).Result()
	return n, wrapUnavailable("incr", err)
}

func (s *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	defer s.observeLatency("expire", time.Now())
	err := s.client.Expire(ctx, key, ttl).Err()
	return wrapUnavailable("expire", err)
}

func (s *RedisStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	defer s.observeLatency("ttl", time.Now())
	d, err := s.client.TTL(ctx, key).Result()
	return d, wrapUnavailable("ttl", err)
}

var _ ratelimiter.Store = (*RedisStore)(nil)
