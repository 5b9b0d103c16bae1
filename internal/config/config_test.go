package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"PORT", "LOG_LEVEL", "BOT_TOKEN", "WEBHOOK_SECRET", "STATE_BACKEND", "STATE_TTL",
		"DATABASE_URL", "POSTGRES_USER", "POSTGRES_PASSWORD", "PG_HOST", "PG_PORT", "PG_DATABASE",
		"REDIS_ADDR", "REDIS_DB", "HISTORIAN_ENABLED", "HISTORIAN_QUEUE_NAME", "HISTORIAN_BATCH_SIZE",
		"HISTORIAN_FLUSH_MS", "CHAT_RATE_PER_SEC", "CHAT_RATE_BURST",
		"JWT_PRIVATE_KEY_PATH", "JWT_PUBLIC_KEY_PATH", "TOKEN_EXPIRE_TIME",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendMemory, cfg.StateBackend)
	assert.Equal(t, 30*24*time.Hour, cfg.StateTTL)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "cucu_actions", cfg.HistorianQueue)
	assert.Equal(t, 20, cfg.HistorianBatch)
	assert.Equal(t, 500*time.Millisecond, cfg.HistorianFlush)
	assert.Equal(t, 2.0, cfg.ChatRatePerSec)
	assert.Equal(t, "postgres://:@localhost:5432/cucu", cfg.DatabaseURL)
	assert.False(t, cfg.HistorianEnabled)
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("STATE_BACKEND", "Redis")
	t.Setenv("STATE_TTL", "2h")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("HISTORIAN_ENABLED", "true")
	t.Setenv("POSTGRES_USER", "cucu")
	t.Setenv("POSTGRES_PASSWORD", "s3cret")
	t.Setenv("PG_HOST", "db")
	t.Setenv("PG_DATABASE", "games")
	t.Setenv("CHAT_RATE_PER_SEC", "0.5")
	t.Setenv("TOKEN_EXPIRE_TIME", "72h")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendRedis, cfg.StateBackend)
	assert.Equal(t, 2*time.Hour, cfg.StateTTL)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.True(t, cfg.HistorianEnabled)
	assert.Equal(t, "postgres://cucu:s3cret@db:5432/games", cfg.DatabaseURL)
	assert.Equal(t, 0.5, cfg.ChatRatePerSec)
	assert.Equal(t, 72*time.Hour, cfg.TokenTTL)

	t.Setenv("DATABASE_URL", "postgres://other/db")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://other/db", cfg.DatabaseURL)
}

func TestLoadTokenNeverExpires(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOKEN_EXPIRE_TIME", "never")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Zero(t, cfg.TokenTTL)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("STATE_TTL", "forever")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	assert.Error(t, cfg.Validate(), "bot token is required")

	cfg.BotToken = "123:abc"
	assert.NoError(t, cfg.Validate())

	cfg.StateBackend = "cosmos"
	assert.Error(t, cfg.Validate())
	cfg.StateBackend = BackendPostgres

	cfg.JWTPrivateKeyPath = "/keys/priv"
	assert.Error(t, cfg.Validate())
	cfg.JWTPublicKeyPath = "/keys/pub"
	assert.NoError(t, cfg.Validate())
}

func TestNewLogger(t *testing.T) {
	cfg := &Config{LogLevel: "debug"}
	assert.Equal(t, logrus.DebugLevel, cfg.NewLogger().GetLevel())

	cfg.LogLevel = "chatty"
	assert.Equal(t, logrus.InfoLevel, cfg.NewLogger().GetLevel())
}
