package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	zerologadapter "github.com/ratelimitcore/rlengine/adapters/zerolog"
	ginMiddleware "github.com/ratelimitcore/rlengine/middleware/gin"
	"github.com/ratelimitcore/rlengine/ratelimiter"
	"github.com/ratelimitcore/rlengine/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	zeroLogger := zerologadapter.New(&log.Logger)

	limiterStore := store.NewMemory(ctx, 10*time.Minute)
	registry := ratelimiter.NewRegistry()
	if err := registry.Add(ratelimiter.Rule{
		Domain:         "api",
		KeyType:        ratelimiter.KeyIPAddress,
		Quota:          1,
		WindowUnit:     ratelimiter.Second,
		Algorithm:      ratelimiter.TokenBucket,
		BucketCapacity: 5,
	}); err != nil {
		log.Fatal().Err(err).Msg("registering rule")
	}

	facade := ratelimiter.NewFacade(registry, limiterStore, ratelimiter.WithLogger(zeroLogger))

	router := gin.Default()
	router.Use(ginMiddleware.RateLimiter(facade))
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	log.Info().Msg("Starting server on http://localhost:8080")
	if err := router.Run(":8080"); err != nil {
		log.Fatal().Err(err).Msg("Failed to run server")
	}
}
