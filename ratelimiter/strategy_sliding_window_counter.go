package ratelimiter

import (
	"context"
	"fmt"
	"math"
	"time"
)

// slidingWindowCounterStrategy implements Sliding Window Counter, a hybrid
// that approximates the log's accuracy with only two counters. It
// assumes requests are distributed uniformly within the previous window;
// that assumption is the algorithm's one acknowledged source of error.
type slidingWindowCounterStrategy struct {
	store Store
}

func (s *slidingWindowCounterStrategy) Decide(ctx context.Context, client ClientIdentifier, rule Rule) (Decision, error) {
	windowSeconds, err := rule.WindowSeconds()
	if err != nil {
		return Decision{}, err
	}

	now := time.Now()
	nowUnix := now.Unix()
	currentWindowStart := (nowUnix / windowSeconds) * windowSeconds
	previousWindowStart := currentWindowStart - windowSeconds

	elapsedInCurrent := float64(nowUnix - currentWindowStart)
	progress := elapsedInCurrent / float64(windowSeconds)
	previousWeight := 1.0 - progress

	base := rule.baseKey(client)
	currentKey := fmt.Sprintf("%s:window:%d", base, currentWindowStart)
	previousKey := fmt.Sprintf("%s:window:%d", base, previousWindowStart)

	currentCount, err := s.getCount(ctx, currentKey)
	if err != nil {
		return Decision{}, err
	}
	previousCount, err := s.getCount(ctx, previousKey)
	if err != nil {
		return Decision{}, err
	}

	weighted := float64(currentCount) + float64(previousCount)*previousWeight
	estimated := int64(math.Floor(weighted))

	d := Decision{Limit: rule.Quota, Algorithm: string(SlidingWindowCounter)}

	if estimated < rule.Quota {
		newCurrent, err := s.store.Incr(ctx, currentKey)
		if err != nil {
			return Decision{}, err
		}
		if err := s.store.Expire(ctx, currentKey, time.Duration(windowSeconds*2)*time.Second); err != nil {
			return Decision{}, err
		}

		weighted = float64(newCurrent) + float64(previousCount)*previousWeight
		estimated = int64(math.Floor(weighted))
		remaining := rule.Quota - estimated
		if remaining < 0 {
			remaining = 0
		}

		d.Allowed = true
		d.Remaining = remaining
		return d, nil
	}

	ttl, err := s.store.TTL(ctx, currentKey)
	if err != nil {
		return Decision{}, err
	}
	retryAfter := int64(ttl.Seconds())
	if retryAfter < 1 {
		retryAfter = windowSeconds
	}

	d.Allowed = false
	d.Remaining = 0
	d.RetryAfter = retryAfter
	return d, nil
}

func (s *slidingWindowCounterStrategy) getCount(ctx context.Context, key string) (int64, error) {
	v, err := s.store.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if v == "" {
		return 0, nil
	}
	var n int64
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return 0, nil
	}
	return n, nil
}
