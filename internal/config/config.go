// internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// State backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config holds every setting read from the environment. Binaries load .env
// files through godotenv/autoload before calling Load.
type Config struct {
	Port     string
	LogLevel string

	BotToken      string
	WebhookSecret string

	StateBackend string
	StateTTL     time.Duration

	DatabaseURL string

	RedisAddr string
	RedisDB   int

	HistorianEnabled bool
	HistorianQueue   string
	HistorianBatch   int
	HistorianFlush   time.Duration

	ChatRatePerSec float64
	ChatRateBurst  int

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	TokenTTL          time.Duration // 0 => admin tokens never expire
}

// Load reads the configuration from the environment, applying defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		BotToken:          os.Getenv("BOT_TOKEN"),
		WebhookSecret:     os.Getenv("WEBHOOK_SECRET"),
		StateBackend:      strings.ToLower(getEnv("STATE_BACKEND", BackendMemory)),
		DatabaseURL:       databaseURL(),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		HistorianEnabled:  getEnvBool("HISTORIAN_ENABLED", false),
		HistorianQueue:    getEnv("HISTORIAN_QUEUE_NAME", "cucu_actions"),
		HistorianBatch:    getEnvInt("HISTORIAN_BATCH_SIZE", 20),
		HistorianFlush:    time.Duration(getEnvInt("HISTORIAN_FLUSH_MS", 500)) * time.Millisecond,
		ChatRateBurst:     getEnvInt("CHAT_RATE_BURST", 5),
		JWTPrivateKeyPath: os.Getenv("JWT_PRIVATE_KEY_PATH"),
		JWTPublicKeyPath:  os.Getenv("JWT_PUBLIC_KEY_PATH"),
	}

	var err error
	if cfg.StateTTL, err = getEnvDuration("STATE_TTL", 30*24*time.Hour); err != nil {
		return nil, err
	}
	if os.Getenv("TOKEN_EXPIRE_TIME") != "never" {
		if cfg.TokenTTL, err = getEnvDuration("TOKEN_EXPIRE_TIME", 0); err != nil {
			return nil, err
		}
	}
	if cfg.ChatRatePerSec, err = getEnvFloat("CHAT_RATE_PER_SEC", 2); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings needed by the chat server.
func (c *Config) Validate() error {
	switch c.StateBackend {
	case BackendMemory, BackendPostgres, BackendRedis:
	default:
		return fmt.Errorf("unknown STATE_BACKEND %q", c.StateBackend)
	}
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	if c.HistorianBatch <= 0 {
		return fmt.Errorf("HISTORIAN_BATCH_SIZE must be positive")
	}
	if c.ChatRatePerSec <= 0 || c.ChatRateBurst <= 0 {
		return fmt.Errorf("CHAT_RATE_PER_SEC and CHAT_RATE_BURST must be positive")
	}
	if (c.JWTPrivateKeyPath == "") != (c.JWTPublicKeyPath == "") {
		return fmt.Errorf("JWT_PRIVATE_KEY_PATH and JWT_PUBLIC_KEY_PATH must be set together")
	}
	return nil
}

// NewLogger returns a logrus logger at LOG_LEVEL, falling back to info for
// unknown levels.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logger.WithField("level", c.LogLevel).Warn("unknown LOG_LEVEL, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

// databaseURL prefers DATABASE_URL and otherwise builds one from the POSTGRES_* and PG_* variables.
func databaseURL() string {
	if u := os.Getenv("DATABASE_URL"); u != "" {
		return u
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(os.Getenv("POSTGRES_USER"), os.Getenv("POSTGRES_PASSWORD")),
		Host:   getEnv("PG_HOST", "localhost") + ":" + getEnv("PG_PORT", "5432"),
		Path:   "/" + getEnv("PG_DATABASE", "cucu"),
	}
	return u.String()
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func getEnvFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return v, nil
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return d, nil
}
