package ratelimiter

import (
	"fmt"
	"sync"
)

// Registry is an in-memory index of active Rules keyed by (Domain,
// KeyType). Reads vastly outnumber writes; a plain map guarded by a
// RWMutex gives concurrent readers either the old or the new rule during a
// write, never a torn value. Missing rules are not an error — the Facade
// interprets absence as "no limit" (fail-open).
type Registry struct {
	mu    sync.RWMutex
	rules map[string]Rule
}

// NewRegistry returns an empty Registry. Default rules, if any, are the
// caller's responsibility to seed via Add.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]Rule)}
}

func ruleKey(domain string, keyType KeyType) string {
	return fmt.Sprintf("%s:%s", domain, keyType)
}

// Add validates rule and inserts it, replacing any existing rule for the
// same (Domain, KeyType) in place. Rules are never deleted silently.
func (r *Registry) Add(rule Rule) error {
	normalized, err := rule.normalize()
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[ruleKey(normalized.Domain, normalized.KeyType)] = normalized
	return nil
}

// Get returns the rule for (domain, keyType), if one has been added.
func (r *Registry) Get(domain string, keyType KeyType) (Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[ruleKey(domain, keyType)]
	return rule, ok
}

// List returns a snapshot of every active rule, in no particular order.
func (r *Registry) List() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, rule)
	}
	return out
}
