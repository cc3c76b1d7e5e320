// Command server runs the rate limiting engine behind a Gin HTTP front end:
// health/metrics/admin endpoints plus a global rate-limit middleware backed
// by Redis.
package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	zapadapter "github.com/ratelimitcore/rlengine/adapters/zap"
	"github.com/ratelimitcore/rlengine/config"
	ginmiddleware "github.com/ratelimitcore/rlengine/middleware/gin"
	"github.com/ratelimitcore/rlengine/ratelimiter"
	"github.com/ratelimitcore/rlengine/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	settings, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zapLevel, err := zap.ParseAtomicLevel(settings.LogLevel)
	if err != nil {
		log.Fatalf("log level: %v", err)
	}
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zapLevel
	zapLogger, err := zapCfg.Build()
	if err != nil {
		log.Fatalf("zap: %v", err)
	}
	defer zapLogger.Sync()
	logger := zapadapter.New(zapLogger)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     settings.StoreAddr(),
		Password: settings.StorePassword,
		DB:       settings.StoreDBIndex,
	})
	defer redisClient.Close()

	reg := prometheus.NewRegistry()
	metrics := newPrometheusMetrics(reg)

	redisStore := store.NewRedis(redisClient, store.WithMetrics(metrics))

	registry := ratelimiter.NewRegistry()
	seedDefaultRules(registry, settings.DefaultAlgorithm, logger)

	facade := ratelimiter.NewFacade(registry, redisStore,
		ratelimiter.WithLogger(logger),
		ratelimiter.WithMetrics(metrics),
	)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginmiddleware.RateLimiter(facade, ginmiddleware.WithDomainFunc(pathPrefixDomainFunc)))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	router.GET("/rules", listRulesHandler(registry))
	router.POST("/rules/add", addRuleHandler(registry))
	router.POST("/auth/login", loginHandler())
	router.GET("/search", searchHandler())

	srv := &http.Server{
		Addr:    settings.ListenAddr(),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("server shutdown: %v", err)
		}
	}()

	logger.Debugf("listening on %s", settings.ListenAddr())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server: %v", err)
	}
}

// seedDefaultRules installs the three illustrative rules the admin surface
// ships with out of the box: per-user API quota, per-IP login protection,
// and a per-endpoint burst guard.
func seedDefaultRules(registry *ratelimiter.Registry, defaultAlgorithm ratelimiter.Algorithm, logger ratelimiter.Logger) {
	defaults := []ratelimiter.Rule{
		{Domain: "api", KeyType: ratelimiter.KeyUserID, Quota: 1000, WindowUnit: ratelimiter.Hour, Algorithm: defaultAlgorithm},
		{Domain: "auth", KeyType: ratelimiter.KeyIPAddress, Quota: 5, WindowUnit: ratelimiter.Minute, Algorithm: ratelimiter.FixedWindow},
		{Domain: "search", KeyType: ratelimiter.KeyEndpoint, Quota: 20, WindowUnit: ratelimiter.Second, Algorithm: ratelimiter.SlidingWindowCounter},
	}
	for _, rule := range defaults {
		if err := registry.Add(rule); err != nil {
			logger.Errorf("seed rule %s/%s: %v", rule.Domain, rule.KeyType, err)
		}
	}
}
