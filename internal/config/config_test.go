package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg := Load()

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, []byte("test-secret"), cfg.JWT.Secret)
	assert.False(t, cfg.JWT.AllowAnonymous, "anonymous mode must be off by default")
	assert.Equal(t, 256, cfg.Realtime.SendQueueCapacity)
	assert.Equal(t, PolicyDisconnect, cfg.Realtime.SlowConsumerPolicy)
	assert.Equal(t, 2000, cfg.Realtime.MaxMessageLength)
	assert.Equal(t, 4*time.Second, cfg.Realtime.TypingExpiry)
	assert.Equal(t, 2*time.Second, cfg.Realtime.OfflineDebounce)
	assert.Equal(t, 200, cfg.Realtime.BackfillLimit)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", ":9999")
	t.Setenv("SEND_QUEUE_CAPACITY", "32")
	t.Setenv("SLOW_CONSUMER_POLICY", "drop_oldest")
	t.Setenv("TYPING_EXPIRY", "1s")
	t.Setenv("ALLOW_ANONYMOUS", "true")

	cfg := Load()

	require.Equal(t, ":9999", cfg.Server.Port)
	assert.Equal(t, 32, cfg.Realtime.SendQueueCapacity)
	assert.Equal(t, PolicyDropOldest, cfg.Realtime.SlowConsumerPolicy)
	assert.Equal(t, time.Second, cfg.Realtime.TypingExpiry)
	assert.True(t, cfg.JWT.AllowAnonymous)
}
