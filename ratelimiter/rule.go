// Package ratelimiter provides flexible rate-limiting algorithms and interfaces.
//
// It includes support for Token Bucket, Leaky Bucket, Fixed Window, Sliding
// Window Log, and Sliding Window Counter, pluggable storage backends, and
// a rule registry that lets a gateway fleet share a single logical quota
// per client by coordinating through a common store.
package ratelimiter

import (
	"fmt"
	"time"
)

// TimeUnit is a rule's quota window, expressed coarsely so rules stay
// human-readable in configuration and admin payloads.
type TimeUnit string

const (
	Second TimeUnit = "second"
	Minute TimeUnit = "minute"
	Hour   TimeUnit = "hour"
	Day    TimeUnit = "day"
)

// Seconds converts the unit to its fixed integer-second duration.
func (u TimeUnit) Seconds() (int64, error) {
	switch u {
	case Second:
		return 1, nil
	case Minute:
		return 60, nil
	case Hour:
		return 3600, nil
	case Day:
		return 86400, nil
	default:
		return 0, fmt.Errorf("%w: unknown window unit %q", ErrInvalidRule, u)
	}
}

// Algorithm names the strategy a Rule dispatches to. It is a closed set;
// there is no open extension mechanism (see strategyFor in strategy.go).
type Algorithm string

const (
	TokenBucket          Algorithm = "token_bucket"
	LeakyBucket          Algorithm = "leaky_bucket"
	FixedWindow          Algorithm = "fixed_window"
	SlidingWindowLog     Algorithm = "sliding_window_log"
	SlidingWindowCounter Algorithm = "sliding_window_counter"
)

func (a Algorithm) valid() bool {
	switch a {
	case TokenBucket, LeakyBucket, FixedWindow, SlidingWindowLog, SlidingWindowCounter:
		return true
	default:
		return false
	}
}

// KeyType names which field of a ClientIdentifier a Rule limits by.
type KeyType string

const (
	KeyUserID    KeyType = "user_id"
	KeyIPAddress KeyType = "ip_address"
	KeyEndpoint  KeyType = "endpoint"
)

// Rule is a long-lived rate-limit configuration for one (Domain, KeyType)
// pair. Rules are immutable once constructed; replacing one is done by
// calling Registry.Add again with the same (Domain, KeyType).
type Rule struct {
	Domain         string
	KeyType        KeyType
	Quota          int64
	WindowUnit     TimeUnit
	Algorithm      Algorithm
	BucketCapacity int64 // Token Bucket only; defaults to Quota
	QueueCapacity  int64 // Leaky Bucket only; defaults to 2*Quota
}

// WindowSeconds resolves WindowUnit to an integer-second duration.
func (r Rule) WindowSeconds() (int64, error) {
	return r.WindowUnit.Seconds()
}

// Window resolves WindowUnit to a time.Duration, for callers that want a
// Duration rather than a raw second count.
func (r Rule) Window() (time.Duration, error) {
	s, err := r.WindowUnit.Seconds()
	if err != nil {
		return 0, err
	}
	return time.Duration(s) * time.Second, nil
}

// normalize fills in algorithm-specific defaults and validates invariants.
// It returns a copy; the receiver is never mutated.
func (r Rule) normalize() (Rule, error) {
	if r.Domain == "" {
		return Rule{}, fmt.Errorf("%w: domain must not be empty", ErrInvalidRule)
	}
	if r.KeyType != KeyUserID && r.KeyType != KeyIPAddress && r.KeyType != KeyEndpoint {
		return Rule{}, fmt.Errorf("%w: unknown key type %q", ErrInvalidRule, r.KeyType)
	}
	if r.Quota <= 0 {
		return Rule{}, fmt.Errorf("%w: quota must be > 0, got %d", ErrInvalidRule, r.Quota)
	}
	if _, err := r.WindowUnit.Seconds(); err != nil {
		return Rule{}, err
	}
	if !r.Algorithm.valid() {
		return Rule{}, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, r.Algorithm)
	}

	if r.BucketCapacity <= 0 {
		r.BucketCapacity = r.Quota
	}
	if r.QueueCapacity <= 0 {
		r.QueueCapacity = r.Quota * 2
	}
	return r, nil
}

// baseKey is the canonical per-client key shared by every strategy:
// "rate_limit:{domain}:{key_type}:{identifier}".
func (r Rule) baseKey(client ClientIdentifier) string {
	identifier := client.valueFor(r.KeyType)
	return fmt.Sprintf("rate_limit:%s:%s:%s", r.Domain, r.KeyType, identifier)
}
