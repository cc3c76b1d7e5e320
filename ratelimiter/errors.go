package ratelimiter

import "errors"

// Sentinel error kinds. Callers use errors.Is against these; the engine
// never defines an exported error type hierarchy for this.
var (
	// ErrInvalidRule is returned when a Rule's fields violate an invariant
	// (quota <= 0, unrecognized window unit, missing domain, ...).
	ErrInvalidRule = errors.New("ratelimiter: invalid rule")

	// ErrUnknownAlgorithm is returned when a Rule names an algorithm outside
	// the closed set of five.
	ErrUnknownAlgorithm = errors.New("ratelimiter: unknown algorithm")

	// ErrStoreUnavailable wraps any store round-trip failure (connection
	// loss, timeout, context deadline). The Facade treats it as fail-open;
	// Store implementations wrap the underlying error with this sentinel
	// via fmt.Errorf("%w: ...", ErrStoreUnavailable, err), and strategies
	// return it unchanged.
	ErrStoreUnavailable = errors.New("ratelimiter: store unavailable")
)
