// Package gin provides a Gin middleware adapter for the rate limiting
// engine in github.com/ratelimitcore/rlengine/ratelimiter.
//
// Example usage:
//
//	facade := ratelimiter.NewFacade(registry, store)
//	router := gin.Default()
//	router.Use(ginmiddleware.RateLimiter(facade))
package gin

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ratelimitcore/rlengine/ratelimiter"
)

// DomainFunc derives a rate-limit domain from an incoming request. The
// default implementation returns the constant domain "api".
type DomainFunc func(r *http.Request) string

type config struct {
	domainFunc DomainFunc
}

// Option configures the gin middleware via the functional-options pattern.
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

// keyTypeFor picks which identifier field the lookup is keyed on: an
// authenticated caller is limited per user, an anonymous one per IP.
func keyTypeFor(client ratelimiter.ClientIdentifier) ratelimiter.KeyType {
	if client.UserID != "" {
		return ratelimiter.KeyUserID
	}
	return ratelimiter.KeyIPAddress
}

// RateLimiter creates a Gin middleware handler that enforces rate limiting
// through facade. GET /health always bypasses the check.
func RateLimiter(facade *ratelimiter.Facade, opts ...Option) gin.HandlerFunc {
	cfg := &config{domainFunc: defaultDomainFunc}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		client := clientIdentifier(c.Request)
		domain := cfg.domainFunc(c.Request)

		decision, err := facade.Check(c.Request.Context(), client, domain, keyTypeFor(client))
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		c.Header("X-Ratelimit-Limit", strconv.FormatInt(decision.Limit, 10))
		c.Header("X-Ratelimit-Remaining", strconv.FormatInt(decision.Remaining, 10))

		if !decision.Allowed {
			c.Header("X-Ratelimit-Retry-After", strconv.FormatInt(decision.RetryAfter, 10))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"message":     "Too many requests. Retry after " + strconv.FormatInt(decision.RetryAfter, 10) + " seconds.",
				"retry_after": decision.RetryAfter,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
