package ratelimiter

import (
	"context"
	"time"
)

// Store is the full set of atomic primitives the five strategies need.
// Every method is atomic at the single key it operates on; no multi-key
// atomicity is required or assumed. Implementations MUST NOT decompose
// IncrWithLimit, TokenBucketTake, or LeakyBucketTake into multiple
// non-atomic round trips — doing so reintroduces the classic
// read-then-write race these methods exist to close.
//
// Connection loss or timeout must surface as an error wrapping
// ErrStoreUnavailable so the Facade can apply the fail-open policy.
type Store interface {
	// IncrWithLimit atomically increments the counter at key if it is
	// currently below limit. It returns whether the increment happened,
	// the resulting count, and the key's remaining TTL. The TTL
	// is (re)established only on the first increment of a fresh key, so
	// rolling increments never extend a window's lifetime.
	IncrWithLimit(ctx context.Context, key string, limit int64, window time.Duration) (allowed bool, count int64, ttl time.Duration, err error)

	// TokenBucketTake refills and then attempts to consume one token from
	// the bucket at key. Returns whether a token was taken and the token
	// count remaining afterward (floored for display, compared as a real
	// number internally).
	TokenBucketTake(ctx context.Context, key string, capacity int64, refillRate float64, now time.Time) (allowed bool, tokensRemaining float64, err error)

	// LeakyBucketTake leaks queue slots since the last call, then attempts
	// to enqueue one more request. Returns whether the request was queued
	// and the queue depth afterward. windowSeconds sets the persisted
	// state's TTL, matching the rule's own window rather than a flat
	// constant, so a long-window rule's queue state is not evicted mid-window.
	LeakyBucketTake(ctx context.Context, key string, queueCapacity int64, outflowRate float64, windowSeconds int64, now time.Time) (allowed bool, queueCountAfter int64, err error)

	// ZAdd adds member with the given score to the sorted set at key.
	ZAdd(ctx context.Context, key string, score float64, member string) error
	// ZRemRangeByScore removes members from the sorted set at key whose
	// score falls within [min, max].
	ZRemRangeByScore(ctx context.Context, key string, min, max float64) error
	// ZCard returns the cardinality of the sorted set at key.
	ZCard(ctx context.Context, key string) (int64, error)

	// Get returns the string value at key, or "" if absent.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value at key with the given TTL (0 means no expiration).
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Incr increments the integer counter at key by 1 and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)
	// Expire sets key's TTL.
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// TTL returns key's remaining time to live, or a negative value if the
	// key doesn't exist or has no expiration.
	TTL(ctx context.Context, key string) (time.Duration, error)
}
