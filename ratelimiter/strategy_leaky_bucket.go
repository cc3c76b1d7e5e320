package ratelimiter

import (
	"context"
	"math"
	"time"
)

// leakyBucketStrategy implements Leaky Bucket. Unlike Token Bucket, the
// queue can never burst past QueueCapacity, and requests queued earlier
// stay counted against capacity until the fixed outflow rate leaks them
// out. The read-leak-write sequence is folded into one atomic store call
// (LeakyBucketTake) rather than decomposed client-side, closing the race
// two concurrent requests to the same key would otherwise hit.
type leakyBucketStrategy struct {
	store Store
}

func (s *leakyBucketStrategy) Decide(ctx context.Context, client ClientIdentifier, rule Rule) (Decision, error) {
	windowSeconds, err := rule.WindowSeconds()
	if err != nil {
		return Decision{}, err
	}
	outflowRate := float64(rule.Quota) / float64(windowSeconds)
	queueCapacity := rule.QueueCapacity

	key := rule.baseKey(client)
	allowed, queueCountAfter, err := s.store.LeakyBucketTake(ctx, key, queueCapacity, outflowRate, windowSeconds, time.Now())
	if err != nil {
		return Decision{}, err
	}

	d := Decision{
		Allowed:   allowed,
		Limit:     queueCapacity,
		Algorithm: string(LeakyBucket),
	}
	if allowed {
		d.Remaining = queueCapacity - queueCountAfter
		if d.Remaining < 0 {
			d.Remaining = 0
		}
	} else {
		d.Remaining = 0
		d.RetryAfter = int64(math.Ceil(1 / outflowRate))
		if d.RetryAfter < 1 {
			d.RetryAfter = 1
		}
	}
	return d, nil
}
