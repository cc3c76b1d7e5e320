// Package config loads runtime settings for cmd/server from the environment,
// using spf13/viper the way the rest of the example corpus configures its
// services — one Load() call, env-only, fail fast on invalid values.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/ratelimitcore/rlengine/ratelimiter"
)

const envPrefix = "RATELIMITER"

// Settings holds everything cmd/server needs to wire the engine: where the
// store lives, where the HTTP server listens, and the default algorithm
// and log level.
type Settings struct {
	StoreHost     string
	StorePort     int
	StoreDBIndex  int
	StorePassword string

	ListenHost string
	ListenPort int

	DefaultAlgorithm ratelimiter.Algorithm
	LogLevel         string
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Load reads Settings from the environment (prefix RATELIMITER_), applying
// the defaults documented for the engine's admin surface. An invalid
// default_algorithm or log_level fails the load instead of being silently
// coerced.
func Load() (Settings, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store_host", "localhost")
	v.SetDefault("store_port", 6379)
	v.SetDefault("store_db_index", 0)
	v.SetDefault("store_password", "")
	v.SetDefault("listen_host", "0.0.0.0")
	v.SetDefault("listen_port", 8080)
	v.SetDefault("default_algorithm", string(ratelimiter.TokenBucket))
	v.SetDefault("log_level", "info")

	algorithm := ratelimiter.Algorithm(v.GetString("default_algorithm"))
	switch algorithm {
	case ratelimiter.TokenBucket, ratelimiter.LeakyBucket, ratelimiter.FixedWindow,
		ratelimiter.SlidingWindowLog, ratelimiter.SlidingWindowCounter:
	default:
		return Settings{}, fmt.Errorf("%w: unknown default_algorithm %q", ratelimiter.ErrInvalidRule, algorithm)
	}

	logLevel := v.GetString("log_level")
	if !validLogLevels[logLevel] {
		return Settings{}, fmt.Errorf("%w: unknown log_level %q", ratelimiter.ErrInvalidRule, logLevel)
	}

	return Settings{
		StoreHost:        v.GetString("store_host"),
		StorePort:        v.GetInt("store_port"),
		StoreDBIndex:     v.GetInt("store_db_index"),
		StorePassword:    v.GetString("store_password"),
		ListenHost:       v.GetString("listen_host"),
		ListenPort:       v.GetInt("listen_port"),
		DefaultAlgorithm: algorithm,
		LogLevel:         logLevel,
	}, nil
}

// StoreAddr formats the store host/port as a single "host:port" string for
// redis.Options.Addr.
func (s Settings) StoreAddr() string {
	return fmt.Sprintf("%s:%d", s.StoreHost, s.StorePort)
}

// ListenAddr formats the listen host/port as a single "host:port" string.
func (s Settings) ListenAddr() string {
	return fmt.Sprintf("%s:%d", s.ListenHost, s.ListenPort)
}
