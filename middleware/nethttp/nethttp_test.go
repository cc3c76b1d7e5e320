package nethttp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ratelimitcore/rlengine/ratelimiter"
	"github.com/ratelimitcore/rlengine/store"
)

func newTestHandler(t *testing.T, quota int64) http.Handler {
	t.Helper()

	registry := ratelimiter.NewRegistry()
	require.NoError(t, registry.Add(ratelimiter.Rule{
		Domain:     "api",
		KeyType:    ratelimiter.KeyIPAddress,
		Quota:      quota,
		WindowUnit: ratelimiter.Minute,
		Algorithm:  ratelimiter.FixedWindow,
	}))
	facade := ratelimiter.NewFacade(registry, store.NewMemory(context.Background(), 0))

	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return Middleware(facade)(mux)
}

func TestMiddlewareAllowsWithinQuota(t *testing.T) {
	handler := newTestHandler(t, 1)
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "203.0.113.10:1"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMiddlewareRejectsOverQuota(t *testing.T) {
	handler := newTestHandler(t, 1)
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "203.0.113.11:1"

	handler.ServeHTTP(httptest.NewRecorder(), req)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "retry_after")
}

func TestMiddlewareBypassesHealth(t *testing.T) {
	handler := newTestHandler(t, 1)
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "203.0.113.12:1"
	handler.ServeHTTP(httptest.NewRecorder(), req) // exhaust quota

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "203.0.113.12:1"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
