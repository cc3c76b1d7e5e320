package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// pathPrefixDomainFunc derives a rate-limit domain from the request path,
// mirroring the domain dispatch a real gateway would do in front of several
// backend services: login endpoints get their own stricter domain, search
// gets its own burst domain, and everything else falls back to "api".
func pathPrefixDomainFunc(r *http.Request) string {
	switch {
	case strings.HasPrefix(r.URL.Path, "/auth/"):
		return "auth"
	case strings.HasPrefix(r.URL.Path, "/search"):
		return "search"
	default:
		return "api"
	}
}

// loginHandler stands in for whatever credential check a real deployment
// wires up; its only purpose here is to give the "auth" domain a reachable
// route so its rule is actually enforced.
func loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// searchHandler stands in for the search backend; gives the "search" domain
// a reachable route so its rule is actually enforced.
func searchHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"results": []string{}})
	}
}
