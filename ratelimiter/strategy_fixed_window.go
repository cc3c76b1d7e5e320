package ratelimiter

import (
	"context"
	"fmt"
	"time"
)

// fixedWindowStrategy implements Fixed Window. It is the simplest
// and cheapest algorithm, included deliberately despite its documented
// weakness: traffic straddling a window boundary can admit up to
// 2 x quota within a rolling window of windowSeconds.
type fixedWindowStrategy struct {
	store Store
}

func (s *fixedWindowStrategy) Decide(ctx context.Context, client ClientIdentifier, rule Rule) (Decision, error) {
	windowSeconds, err := rule.WindowSeconds()
	if err != nil {
		return Decision{}, err
	}
	window := time.Duration(windowSeconds) * time.Second

	now := time.Now().Unix()
	windowStart := (now / windowSeconds) * windowSeconds
	key := fmt.Sprintf("%s:window:%d", rule.baseKey(client), windowStart)

	allowed, count, ttl, err := s.store.IncrWithLimit(ctx, key, rule.Quota, window)
	if err != nil {
		return Decision{}, err
	}

	remaining := rule.Quota - count
	if remaining < 0 {
		remaining = 0
	}

	d := Decision{
		Allowed:   allowed,
		Remaining: remaining,
		Limit:     rule.Quota,
		Algorithm: string(FixedWindow),
	}
	if !allowed {
		d.Remaining = 0
		d.RetryAfter = int64(ttl.Seconds())
		if d.RetryAfter < 1 {
			d.RetryAfter = 1
		}
	}
	return d, nil
}
