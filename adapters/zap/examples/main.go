package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	zapadapter "github.com/ratelimitcore/rlengine/adapters/zap"
	ginMiddleware "github.com/ratelimitcore/rlengine/middleware/gin"
	"github.com/ratelimitcore/rlengine/ratelimiter"
	"github.com/ratelimitcore/rlengine/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := zap.Config{
		Level:         zap.NewAtomicLevelAt(zap.DebugLevel),
		Development:   true,
		Encoding:      "console",
		OutputPaths:   []string{"stdout"},
		EncoderConfig: zap.NewDevelopmentEncoderConfig(),
	}
	logger, _ := cfg.Build()
	defer logger.Sync()

	zapLogger := zapadapter.New(logger)

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
		log.Fatalf("registering rule: %v", err)
	}

	facade := ratelimiter.NewFacade(registry, limiterStore, ratelimiter.WithLogger(zapLogger))

	router := gin.Default()
	router.Use(ginMiddleware.RateLimiter(facade))
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	logger.Info("Starting server on http://localhost:8080")
	if err := router.Run(":8080"); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
