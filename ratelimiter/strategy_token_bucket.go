package ratelimiter

import (
	"context"
	"math"
	"time"
)

// tokenBucketStrategy implements Token Bucket. The bucket admits
// bursts up to rule.BucketCapacity back-to-back, then settles into the
// steady refill rate; this burst-on-full behavior is the algorithm's
// defining property and is deliberate, not a bug.
type tokenBucketStrategy struct {
	store Store
}

func (s *tokenBucketStrategy) Decide(ctx context.Context, client ClientIdentifier, rule Rule) (Decision, error) {
	windowSeconds, err := rule.WindowSeconds()
	if err != nil {
		return Decision{}, err
	}
	refillRate := float64(rule.Quota) / float64(windowSeconds)
	capacity := rule.BucketCapacity

	key := rule.baseKey(client)
	allowed, tokensRemaining, err := s.store.TokenBucketTake(ctx, key, capacity, refillRate, time.Now())
	if err != nil {
		return Decision{}, err
	}

	remaining := int64(math.Floor(tokensRemaining))
	if remaining < 0 {
		remaining = 0
	}

	d := Decision{
		Allowed:   allowed,
		Remaining: remaining,
		Limit:     capacity,
		Algorithm: string(TokenBucket),
	}
	if !allowed {
		d.RetryAfter = int64(math.Ceil(1 / refillRate))
		if d.RetryAfter < 1 {
			d.RetryAfter = 1
		}
	}
	return d, nil
}
