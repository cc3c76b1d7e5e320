package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ratelimitcore/rlengine/ratelimiter"
)

// These tests exercise every Strategy end-to-end (ratelimiter.Facade plus
// the real Decide implementations) against MemoryStore, since the
// strategy/store packages can't both import each other directly.

func newFacade(t *testing.T, rule ratelimiter.Rule) (*ratelimiter.Facade, ratelimiter.ClientIdentifier) {
	t.Helper()
	registry := ratelimiter.NewRegistry()
	require.NoError(t, registry.Add(rule))
	facade := ratelimiter.NewFacade(registry, newTestMemory())
	return facade, ratelimiter.ClientIdentifier{IPAddress: "198.51.100.7"}
}

func TestTokenBucketDecideAdmitsWithinCapacity(t *testing.T) {
	facade, client := newFacade(t, ratelimiter.Rule{
		Domain: "api", KeyType: ratelimiter.KeyIPAddress,
		Quota: 3, WindowUnit: ratelimiter.Second, Algorithm: ratelimiter.TokenBucket, BucketCapacity: 3,
	})

	for i := 0; i < 3; i++ {
		d, err := facade.Check(context.Background(), client, "api", ratelimiter.KeyIPAddress)
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d within capacity", i+1)
		assert.Equal(t, string(ratelimiter.TokenBucket), d.Algorithm)
	}

	d, err := facade.Check(context.Background(), client, "api", ratelimiter.KeyIPAddress)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.GreaterOrEqual(t, d.RetryAfter, int64(1))
}

func TestFixedWindowDecideRejectsOverQuota(t *testing.T) {
	facade, client := newFacade(t, ratelimiter.Rule{
		Domain: "api", KeyType: ratelimiter.KeyIPAddress,
		Quota: 2, WindowUnit: ratelimiter.Minute, Algorithm: ratelimiter.FixedWindow,
	})

	for i := 0; i < 2; i++ {
		d, err := facade.Check(context.Background(), client, "api", ratelimiter.KeyIPAddress)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}
	d, err := facade.Check(context.Background(), client, "api", ratelimiter.KeyIPAddress)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, int64(0), d.Remaining)
}

func TestLeakyBucketDecideBoundsQueue(t *testing.T) {
	facade, client := newFacade(t, ratelimiter.Rule{
		Domain: "api", KeyType: ratelimiter.KeyIPAddress,
		Quota: 5, WindowUnit: ratelimiter.Second, Algorithm: ratelimiter.LeakyBucket, QueueCapacity: 2,
	})

	admitted := 0
	for i := 0; i < 4; i++ {
		d, err := facade.Check(context.Background(), client, "api", ratelimiter.KeyIPAddress)
		require.NoError(t, err)
		if d.Allowed {
			admitted++
		}
	}
	assert.Equal(t, 2, admitted, "queue_capacity bounds the number of simultaneous admissions")
}

func TestSlidingWindowLogDecideAdmitsUpToQuota(t *testing.T) {
	facade, client := newFacade(t, ratelimiter.Rule{
		Domain: "api", KeyType: ratelimiter.KeyIPAddress,
		Quota: 2, WindowUnit: ratelimiter.Minute, Algorithm: ratelimiter.SlidingWindowLog,
	})

	for i := 0; i < 2; i++ {
		d, err := facade.Check(context.Background(), client, "api", ratelimiter.KeyIPAddress)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}
	d, err := facade.Check(context.Background(), client, "api", ratelimiter.KeyIPAddress)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}

func TestSlidingWindowCounterDecideAdmitsUpToQuota(t *testing.T) {
	facade, client := newFacade(t, ratelimiter.Rule{
		Domain: "api", KeyType: ratelimiter.KeyIPAddress,
		Quota: 3, WindowUnit: ratelimiter.Minute, Algorithm: ratelimiter.SlidingWindowCounter,
	})

	admitted := 0
	for i := 0; i < 5; i++ {
		d, err := facade.Check(context.Background(), client, "api", ratelimiter.KeyIPAddress)
		require.NoError(t, err)
		if d.Allowed {
			admitted++
		}
	}
	assert.Equal(t, 3, admitted)
}

func TestKeyIsolationAcrossClients(t *testing.T) {
	facade, _ := newFacade(t, ratelimiter.Rule{
		Domain: "api", KeyType: ratelimiter.KeyIPAddress,
		Quota: 1, WindowUnit: ratelimiter.Minute, Algorithm: ratelimiter.FixedWindow,
	})

	a := ratelimiter.ClientIdentifier{IPAddress: "10.0.0.1"}
	b := ratelimiter.ClientIdentifier{IPAddress: "10.0.0.2"}

	da, err := facade.Check(context.Background(), a, "api", ratelimiter.KeyIPAddress)
	require.NoError(t, err)
	assert.True(t, da.Allowed)

	db, err := facade.Check(context.Background(), b, "api", ratelimiter.KeyIPAddress)
	require.NoError(t, err)
	assert.True(t, db.Allowed, "client B's admission is independent of client A's")
}
