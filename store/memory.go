// Package store provides storage backends implementing ratelimiter.Store.
//
// Currently supported backends:
//   - MemoryStore: in-memory store for tests and single-process examples
//   - RedisStore: Redis-backed store for distributed deployments
//
// Both implement ratelimiter.Store, providing the atomic operations the
// five algorithms need.
package store

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ratelimitcore/rlengine/ratelimiter"
)

type plainEntry struct {
	value     string
	expiresAt time.Time // zero means no expiration
}

func (e plainEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

type tokenBucketEntry struct {
	tokens      float64
	lastUpdated time.Time
}

type leakyBucketEntry struct {
	queueCount int64
	lastLeak   time.Time
	expiresAt  time.Time
}

func (e leakyBucketEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

type sortedSetMember struct {
	member string
	score  float64
}

// MemoryStore is an in-memory implementation of ratelimiter.Store, suitable
// for unit tests and the bundled examples. It is NOT a substitute for a
// shared store across a gateway fleet — it only coordinates within one
// process.
type MemoryStore struct {
	mu sync.Mutex

	plain        map[string]plainEntry
	tokenBuckets map[string]tokenBucketEntry
	leakyBuckets map[string]leakyBucketEntry
	sortedSets   map[string][]sortedSetMember
	expiresAt    map[string]time.Time // tracks TTL for sorted sets
}

// NewMemory creates a new MemoryStore. If cleanupInterval > 0, a background
// goroutine periodically evicts expired entries; pass 0 to disable it and
// manage the process lifetime yourself (as unit tests typically do).
func NewMemory(ctx context.Context, cleanupInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		plain:        make(map[string]plainEntry),
		tokenBuckets: make(map[string]tokenBucketEntry),
		leakyBuckets: make(map[string]leakyBucketEntry),
		sortedSets:   make(map[string][]sortedSetMember),
		expiresAt:    make(map[string]time.Time),
	}
	if cleanupInterval > 0 {
		go s.runCleanup(ctx, cleanupInterval)
	}
	return s
}

func (s *MemoryStore) IncrWithLimit(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	entry, found := s.plain[key]
	if found && entry.expired(now) {
		found = false
	}

	var current int64
	if found {
		fmt.Sscanf(entry.value, "%d", &current)
	}

	if current >= limit {
		ttl := time.Duration(0)
		if found && !entry.expiresAt.IsZero() {
			ttl = entry.expiresAt.Sub(now)
		}
		if ttl < 0 {
			ttl = 0
		}
		return false, current, ttl, nil
	}

	current++
	expiresAt := entry.expiresAt
	if !found {
		expiresAt = now.Add(window)
	}
	s.plain[key] = plainEntry{value: fmt.Sprintf("%d", current), expiresAt: expiresAt}

	ttl := expiresAt.Sub(now)
	if ttl < 0 {
		ttl = 0
	}
	return true, current, ttl, nil
}

func (s *MemoryStore) TokenBucketTake(ctx context.Context, key string, capacity int64, refillRate float64, now time.Time) (bool, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, found := s.tokenBuckets[key]
	if !found {
		entry = tokenBucketEntry{tokens: float64(capacity), lastUpdated: now}
	}

	elapsed := now.Sub(entry.lastUpdated).Seconds()
	if elapsed > 0 {
		entry.tokens = math.Min(float64(capacity), entry.tokens+elapsed*refillRate)
	}

	allowed := false
	if entry.tokens >= 1 {
		entry.tokens--
		allowed = true
	}
	entry.lastUpdated = now
	s.tokenBuckets[key] = entry

	return allowed, entry.tokens, nil
}

func (s *MemoryStore) LeakyBucketTake(ctx context.Context, key string, queueCapacity int64, outflowRate float64, windowSeconds int64, now time.Time) (bool, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, found := s.leakyBuckets[key]
	if !found || entry.expired(now) {
		entry = leakyBucketEntry{queueCount: 0, lastLeak: now}
	}

	elapsed := now.Sub(entry.lastLeak).Seconds()
	leaked := int64(math.Floor(elapsed * outflowRate))
	entry.queueCount -= leaked
	if entry.queueCount < 0 {
		entry.queueCount = 0
	}
	entry.lastLeak = now

	allowed := false
	if entry.queueCount < queueCapacity {
		entry.queueCount++
		allowed = true
	}
	entry.expiresAt = now.Add(time.Duration(windowSeconds) * time.Second)
	s.leakyBuckets[key] = entry

	return allowed, entry.queueCount, nil
}

func (s *MemoryStore) ZAdd(ctx context.Context, key string, score float64, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	members := s.sortedSets[key]
	for i, m := range members {
		if m.member == member {
			members[i].score = score
			return nil
		}
	}
	s.sortedSets[key] = append(members, sortedSetMember{member: member, score: score})
	return nil
}

func (s *MemoryStore) ZRemRangeByScore(ctx context.Context, key string, min, max float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	members := s.sortedSets[key]
	kept := members[:0]
	for _, m := range members {
		if m.score < min || m.score > max {
			kept = append(kept, m)
		}
	}
	s.sortedSets[key] = kept
	return nil
}

func (s *MemoryStore) ZCard(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.sortedSets[key])), nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, found := s.plain[key]
	if !found || entry.expired(time.Now()) {
		return "", nil
	}
	return entry.value, nil
}

func (s *MemoryStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	s.plain[key] = plainEntry{value: value, expiresAt: expiresAt}
	return nil
}

func (s *MemoryStore) Incr(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, found := s.plain[key]
	if !found || entry.expired(time.Now()) {
		entry = plainEntry{}
	}
	var current int64
	fmt.Sscanf(entry.value, "%d", &current)
	current++
	entry.value = fmt.Sprintf("%d", current)
	s.plain[key] = entry
	return current, nil
}

func (s *MemoryStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, found := s.plain[key]; found {
		entry.expiresAt = time.Now().Add(ttl)
		s.plain[key] = entry
		return nil
	}
	s.expiresAt[key] = time.Now().Add(ttl)
	return nil
}

func (s *MemoryStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, found := s.plain[key]; found {
		if entry.expiresAt.IsZero() {
			return -1, nil
		}
		ttl := entry.expiresAt.Sub(time.Now())
		if ttl < 0 {
			return -2, nil
		}
		return ttl, nil
	}
	if exp, found := s.expiresAt[key]; found {
		ttl := exp.Sub(time.Now())
		if ttl < 0 {
			return -2, nil
		}
		return ttl, nil
	}
	return -2, nil
}

// runCleanup periodically drops stale entries so a long-running process
// doesn't accumulate idle keys forever.
func (s *MemoryStore) runCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			now := time.Now()
			for key, e := range s.plain {
				if e.expired(now) {
					delete(s.plain, key)
				}
			}
			staleThreshold := interval * 10
			for key, e := range s.tokenBuckets {
				if now.Sub(e.lastUpdated) > staleThreshold {
					delete(s.tokenBuckets, key)
				}
			}
			for key, e := range s.leakyBuckets {
				if e.expired(now) {
					delete(s.leakyBuckets, key)
				}
			}
			for key, exp := range s.expiresAt {
				if now.After(exp) {
					delete(s.expiresAt, key)
					delete(s.sortedSets, key)
				}
			}
			s.mu.Unlock()
		case <-ctx.Done():
			return
		}
	}
}

var _ ratelimiter.Store = (*MemoryStore)(nil)
