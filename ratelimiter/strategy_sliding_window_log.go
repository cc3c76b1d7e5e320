package ratelimiter

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// slidingWindowLogStrategy implements Sliding Window Log, the most accurate
// of the five at the cost of one sorted-set entry per admitted request.
// Rejected requests are never recorded — logging them too would let an
// attacker inflate memory usage without ever being admitted.
//
// The sorted-set member is a monotonic per-call unique string, not the raw
// timestamp: under sub-millisecond request rates two calls can share a
// timestamp, and ZADD treats identical members as the same entry, silently
// undercounting the window.
type slidingWindowLogStrategy struct {
	store Store
}

func (s *slidingWindowLogStrategy) Decide(ctx context.Context, client ClientIdentifier, rule Rule) (Decision, error) {
	windowSeconds, err := rule.WindowSeconds()
	if err != nil {
		return Decision{}, err
	}
	window := time.Duration(windowSeconds) * time.Second

	now := time.Now()
	nowSeconds := float64(now.UnixNano()) / 1e9
	windowStart := nowSeconds - float64(windowSeconds)

	logKey := rule.baseKey(client) + ":log"

	if err := s.store.ZRemRangeByScore(ctx, logKey, 0, windowStart); err != nil {
		return Decision{}, err
	}
	count, err := s.store.ZCard(ctx, logKey)
	if err != nil {
		return Decision{}, err
	}

	d := Decision{Limit: rule.Quota, Algorithm: string(SlidingWindowLog)}

	if count < rule.Quota {
		member := fmt.Sprintf("%d:%s", now.UnixNano(), uuid.NewString())
		if err := s.store.ZAdd(ctx, logKey, nowSeconds, member); err != nil {
			return Decision{}, err
		}
		if err := s.store.Expire(ctx, logKey, window); err != nil {
			return Decision{}, err
		}
		d.Allowed = true
		d.Remaining = rule.Quota - count - 1
		return d, nil
	}

	d.Allowed = false
	d.Remaining = 0
	d.RetryAfter = int64(math.Ceil(float64(windowSeconds) / float64(rule.Quota)))
	if d.RetryAfter < 1 {
		d.RetryAfter = 1
	}
	return d, nil
}
