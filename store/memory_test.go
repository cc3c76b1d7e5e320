package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemory() *MemoryStore {
	return NewMemory(context.Background(), 0)
}

// TestTokenBucketBurst exercises a bucket refilling at 3 tokens/sec with a
// 5-token burst capacity.
func TestTokenBucketBurst(t *testing.T) {
	s := newTestMemory()
	ctx := context.Background()
	key := "rate_limit:api:ip_address:token-bucket-burst"
	t0 := time.Unix(1_700_000_000, 0)

	var remaining []float64
	for i := 0; i < 5; i++ {
		allowed, tokens, err := s.TokenBucketTake(ctx, key, 5, 3.0, t0)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be admitted within burst capacity", i+1)
		remaining = append(remaining, tokens)
	}
	assert.InDeltaSlice(t, []float64{4, 3, 2, 1, 0}, remaining, 0.0001)

	allowed, _, err := s.TokenBucketTake(ctx, key, 5, 3.0, t0)
	require.NoError(t, err)
	assert.False(t, allowed, "6th request at t=0 should be rejected")

	allowed, _, err = s.TokenBucketTake(ctx, key, 5, 3.0, t0.Add(2*time.Second))
	require.NoError(t, err)
	assert.True(t, allowed, "request at t=2s should be admitted after refill")
}

// TestFixedWindowBoundary demonstrates fixed window's known boundary
// weakness: 5 requests admitted at the tail of one window plus 5 more at
// the head of the next totals 10 admissions across a 2-second span, twice
// the nominal quota. Each window is modeled by its own key, exactly as the
// fixed-window strategy derives "{base}:window:{window_start}".
func TestFixedWindowBoundary(t *testing.T) {
	s := newTestMemory()
	ctx := context.Background()
	base := "rate_limit:api:ip_address:fixed-window-boundary"
	window := time.Minute

	for i := 0; i < 5; i++ {
		allowed, _, _, err := s.IncrWithLimit(ctx, base+":window:0", 5, window)
		require.NoError(t, err)
		assert.True(t, allowed, "window 0 request %d", i+1)
	}
	for i := 0; i < 5; i++ {
		allowed, _, _, err := s.IncrWithLimit(ctx, base+":window:60", 5, window)
		require.NoError(t, err)
		assert.True(t, allowed, "window 60 request %d", i+1)
	}
	// An 11th request in either window is rejected.
	allowed, _, _, err := s.IncrWithLimit(ctx, base+":window:60", 5, window)
	require.NoError(t, err)
	assert.False(t, allowed)
}

// TestSlidingWindowLogAccuracy shows the log evicts entries by score, so
// straddling windows are tracked precisely, unlike fixed window. Scores
// stand in for "seconds since epoch" and are supplied directly, exercising
// ZAdd/ZRemRangeByScore/ZCard without needing to wait in real time.
func TestSlidingWindowLogAccuracy(t *testing.T) {
	s := newTestMemory()
	ctx := context.Background()
	key := "rate_limit:api:ip_address:sliding-window-log:log"
	windowSeconds := 60.0

	// 5 admissions at t=59.
	for i := 0; i < 5; i++ {
		require.NoError(t, s.ZAdd(ctx, key, 59, "m59-"+string(rune('a'+i))))
	}
	count, err := s.ZCard(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)

	// At t=61, everything with score > 61-60=1 survives; all 5 entries at
	// score 59 are still within (1, 61], so no new admission fits.
	require.NoError(t, s.ZRemRangeByScore(ctx, key, 0, 61-windowSeconds))
	count, err = s.ZCard(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count, "all 5 stamps from t=59 remain in the t=61 window")

	// At t=119, the window floor is 59 and the removal range is inclusive,
	// so all five t=59 entries fall out and the log is empty again.
	require.NoError(t, s.ZRemRangeByScore(ctx, key, 0, 119-windowSeconds))
	count, err = s.ZCard(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count, "t=59 stamps have aged out by t=119")
}

// TestLeakyBucketSteadyDrain exercises a queue capacity of 3 draining at
// 5 requests/sec.
func TestLeakyBucketSteadyDrain(t *testing.T) {
	s := newTestMemory()
	ctx := context.Background()
	key := "rate_limit:api:ip_address:leaky-bucket-drain"
	t0 := time.Unix(1_700_000_000, 0)

	admitted := 0
	for i := 0; i < 5; i++ {
		allowed, _, err := s.LeakyBucketTake(ctx, key, 3, 5.0, 60, t0)
		require.NoError(t, err)
		if allowed {
			admitted++
		}
	}
	assert.Equal(t, 3, admitted, "only queue_capacity requests admitted at t=0")

	admitted = 0
	for i := 0; i < 3; i++ {
		allowed, _, err := s.LeakyBucketTake(ctx, key, 3, 5.0, 60, t0.Add(time.Second))
		require.NoError(t, err)
		if allowed {
			admitted++
		}
	}
	assert.Equal(t, 3, admitted, "a full second at 5/s leaks the queue back to empty")
}

// TestLeakyBucketTakePersistsWindowTTL verifies the queue state survives
// past a flat one-hour mark when windowSeconds is longer than that, and is
// gone once windowSeconds has actually elapsed since the last call.
func TestLeakyBucketTakePersistsWindowTTL(t *testing.T) {
	s := newTestMemory()
	ctx := context.Background()
	key := "rate_limit:messaging:user_id:ttl-probe"
	t0 := time.Unix(1_700_000_000, 0)
	oneDaySeconds := int64(86400)

	allowed, count, err := s.LeakyBucketTake(ctx, key, 5, 5.0/float64(oneDaySeconds), oneDaySeconds, t0)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, int64(1), count)

	// Two hours later the entry must still be live: a flat one-hour TTL
	// would have wiped it and reset the queue to empty.
	allowed, count, err = s.LeakyBucketTake(ctx, key, 5, 5.0/float64(oneDaySeconds), oneDaySeconds, t0.Add(2*time.Hour))
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, int64(2), count, "queue state persisted past the one-hour mark")

	// More than a full window after the last call (t0+2h) with no
	// intervening calls, the entry has expired and the queue starts fresh.
	allowed, count, err = s.LeakyBucketTake(ctx, key, 5, 5.0/float64(oneDaySeconds), oneDaySeconds, t0.Add(27*time.Hour))
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, int64(1), count, "entry expired after windowSeconds and queue reset")
}

func TestPlainGetSetIncrExpireTTL(t *testing.T) {
	s := newTestMemory()
	ctx := context.Background()

	v, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, "", v)

	require.NoError(t, s.Set(ctx, "k", "1", time.Minute))
	v, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	n, err := s.Incr(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = s.Incr(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, s.Expire(ctx, "counter", time.Minute))
	ttl, err := s.TTL(ctx, "counter")
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	ttl, err = s.TTL(ctx, "never-set")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(-2), ttl)
}

func TestSortedSetOperations(t *testing.T) {
	s := newTestMemory()
	ctx := context.Background()
	key := "zset"

	require.NoError(t, s.ZAdd(ctx, key, 1, "a"))
	require.NoError(t, s.ZAdd(ctx, key, 2, "b"))
	require.NoError(t, s.ZAdd(ctx, key, 1, "a")) // re-adding the same member doesn't grow the set

	count, err := s.ZCard(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, s.ZRemRangeByScore(ctx, key, 0, 1))
	count, err = s.ZCard(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
