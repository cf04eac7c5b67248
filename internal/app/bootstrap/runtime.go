// Package bootstrap wires shared runtime dependencies from configuration.
package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/hospitalquick/platform/internal/config"
	"github.com/hospitalquick/platform/internal/session"
	"github.com/hospitalquick/platform/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildSessionStore picks the session backend: Redis when reachable so
// sessions survive restarts and are shared across replicas, otherwise an
// in-memory store with a background janitor.
func BuildSessionStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) session.Store {
	if logger == nil {
		logger = logging.Default()
	}

	if client := BuildRedisClient(ctx, cfg, logger, true); client != nil {
		logger.Info("session store: redis", "addr", cfg.RedisAddr, "ttl", cfg.SessionTTL)
		return session.NewRedisStore(client, cfg.SessionTTL, logger)
	}

	logger.Info("session store: memory", "ttl", cfg.SessionTTL)
	store := session.NewMemoryStore(cfg.SessionTTL, logger)
	store.StartJanitor(ctx, cfg.SessionSweepInterval)
	return store
}
