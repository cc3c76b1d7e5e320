package ratelimiter

import "context"

// Decision is the outcome of a single rate-limit check, returned unchanged
// by the Facade to its caller. Invariants: Remaining <= Limit; RetryAfter is
// only set (> 0) when Allowed is false.
type Decision struct {
	Allowed    bool
	Remaining  int64
	Limit      int64
	RetryAfter int64 // seconds; zero means "not applicable"
	Algorithm  string
}

// Strategy is the contract every algorithm implements. Implementations are
// mutually independent and share no state beyond the Store they were built
// with — there is no long-lived per-client state machine on this side;
// all mutable state lives in the store under the rule's base key.
type Strategy interface {
	Decide(ctx context.Context, client ClientIdentifier, rule Rule) (Decision, error)
}
