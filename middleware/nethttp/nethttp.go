// Package nethttp provides a standard-library middleware adapter for the
// rate limiting engine in github.com/ratelimitcore/rlengine/ratelimiter.
//
// Example usage:
//
//	facade := ratelimiter.NewFacade(registry, store)
//	handler := nethttp.Middleware(facade)(mux)
//	http.ListenAndServe(":8080", handler)
package nethttp

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/ratelimitcore/rlengine/ratelimiter"
)

// DomainFunc derives a rate-limit domain from an incoming request. The
// default implementation returns the constant domain "api".
type DomainFunc func(r *http.Request) string

type config struct {
	domainFunc DomainFunc
}

// Option configures the middleware via the functional-options pattern.
type Option func(*config)

// WithDomainFunc overrides how a request maps to a rate-limit domain.
func WithDomainFunc(f DomainFunc) Option {
	return func(c *config) {
		if f != nil {
			c.domainFunc = f
		}
	}
}

func defaultDomainFunc(r *http.Request) string {
	return "api"
}

func clientIdentifier(r *http.Request) ratelimiter.ClientIdentifier {
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ratelimiter.ClientIdentifier{
		UserID:    r.Header.Get("X-User-Id"),
		IPAddress: ip,
		Endpoint:  r.URL.Path,
	}
}

func keyTypeFor(client ratelimiter.ClientIdentifier) ratelimiter.KeyType {
	if client.UserID != "" {
		return ratelimiter.KeyUserID
	}
	return ratelimiter.KeyIPAddress
}

// Middleware wraps next with rate limiting enforced through facade.
// GET /health always bypasses the check.
func Middleware(facade *ratelimiter.Facade, opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{domainFunc: defaultDomainFunc}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			client := clientIdentifier(r)
			domain := cfg.domainFunc(r)

			decision, err := facade.Check(r.Context(), client, domain, keyTypeFor(client))
			if err != nil {
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			w.Header().Set("X-Ratelimit-Limit", strconv.FormatInt(decision.Limit, 10))
			w.Header().Set("X-Ratelimit-Remaining", strconv.FormatInt(decision.Remaining, 10))

			if !decision.Allowed {
				w.Header().Set("X-Ratelimit-Retry-After", strconv.FormatInt(decision.RetryAfter, 10))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"error":       "Rate limit exceeded",
					"message":     "Too many requests. Retry after " + strconv.FormatInt(decision.RetryAfter, 10) + " seconds.",
					"retry_after": decision.RetryAfter,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
