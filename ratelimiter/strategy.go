package ratelimiter

import "fmt"

// strategyFor is a tagged-dispatch factory: a closed switch over the five
// known algorithms, with no open registration mechanism.
func strategyFor(algorithm Algorithm, store Store) (Strategy, error) {
	switch algorithm {
	case TokenBucket:
		return &tokenBucketStrategy{store: store}, nil
	case LeakyBucket:
		return &leakyBucketStrategy{store: store}, nil
	case FixedWindow:
		return &fixedWindowStrategy{store: store}, nil
	case SlidingWindowLog:
		return &slidingWindowLogStrategy{store: store}, nil
	case SlidingWindowCounter:
		return &slidingWindowCounterStrategy{store: store}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}
}
