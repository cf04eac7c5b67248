package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/hospitalquick/platform/internal/config"
	"github.com/hospitalquick/platform/internal/session"
	"github.com/hospitalquick/platform/pkg/logging"
)

func TestBuildRedisClientDisabledWithoutAddr(t *testing.T) {
	cfg := &appconfig.Config{}
	assert.Nil(t, BuildRedisClient(context.Background(), cfg, logging.Default(), true))
	assert.Nil(t, BuildRedisClient(context.Background(), nil, logging.Default(), true))
}

func TestBuildRedisClientVerifyFailureReturnsNil(t *testing.T) {
	cfg := &appconfig.Config{RedisAddr: "127.0.0.1:1"}
	assert.Nil(t, BuildRedisClient(context.Background(), cfg, logging.Default(), true))
}

func TestBuildSessionStorePrefersRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &appconfig.Config{
		RedisAddr:            mr.Addr(),
		SessionTTL:           15 * time.Minute,
		SessionSweepInterval: time.Minute,
	}

	store := BuildSessionStore(context.Background(), cfg, logging.Default())
	require.NotNil(t, store)
	_, ok := store.(*session.RedisStore)
	assert.True(t, ok, "expected a redis-backed store, got %T", store)
}

func TestBuildSessionStoreFallsBackToMemory(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := &appconfig.Config{
		RedisAddr:            "127.0.0.1:1",
		SessionTTL:           15 * time.Minute,
		SessionSweepInterval: time.Minute,
	}

	store := BuildSessionStore(ctx, cfg, logging.Default())
	require.NotNil(t, store)
	_, ok := store.(*session.MemoryStore)
	assert.True(t, ok, "expected a memory store, got %T", store)
}
