package ratelimiter

import (
	"context"
	"errors"
	"math"
	"sync"
)

// Facade is the single entry point a middleware adapter calls: resolve the
// matching rule, select the strategy, execute the decision, and apply the
// fail-open policy if the store is unavailable. It holds no per-request
// mutable state and is safe for concurrent use.
type Facade struct {
	registry *Registry
	store    Store
	logger   Logger
	metrics  Metrics

	mu         sync.Mutex
	strategies map[Algorithm]Strategy
}

// NewFacade builds a Facade over registry and store. Strategy instances are
// created lazily on first use and cached, since a strategy holds only its
// store reference and is otherwise stateless.
func NewFacade(registry *Registry, store Store, opts ...FacadeOption) *Facade {
	f := &Facade{
		registry:   registry,
		store:      store,
		logger:     noopLogger{},
		metrics:    noopMetrics{},
		strategies: make(map[Algorithm]Strategy),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Check resolves the rule for (domain, keyType) and returns the resulting
// Decision. Absence of a matching rule is not an error: it is treated as
// "no limit" (fail-open), and so is a store outage encountered while
// evaluating a matched rule.
func (f *Facade) Check(ctx context.Context, client ClientIdentifier, domain string, keyType KeyType) (Decision, error) {
	rule, ok := f.registry.Get(domain, keyType)
	if !ok {
		return noLimitDecision(), nil
	}

	strategy, err := f.strategyFor(rule.Algorithm)
	if err != nil {
		return Decision{}, err
	}

	decision, err := strategy.Decide(ctx, client, rule)
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			f.logger.Warnf("ratelimiter: store unavailable for %s:%s, failing open: %v", domain, keyType, err)
			return noLimitDecision(), nil
		}
		return Decision{}, err
	}

	f.metrics.ObserveDecision(domain, keyType, decision.Algorithm, decision.Allowed)
	return decision, nil
}

func (f *Facade) strategyFor(algorithm Algorithm) (Strategy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.strategies[algorithm]; ok {
		return s, nil
	}
	s, err := strategyFor(algorithm, f.store)
	if err != nil {
		return nil, err
	}
	f.strategies[algorithm] = s
	return s, nil
}

// noLimitDecision is returned whenever no rule matches or the store is
// unavailable: admit unconditionally, sentinel algorithm "none".
func noLimitDecision() Decision {
	return Decision{
		Allowed:   true,
		Remaining: math.MaxInt64,
		Limit:     math.MaxInt64,
		Algorithm: "none",
	}
}
