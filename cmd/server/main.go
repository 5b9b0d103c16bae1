// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/muscla87/cucu-telegram-game/internal/auth"
	"github.com/muscla87/cucu-telegram-game/internal/cache"
	"github.com/muscla87/cucu-telegram-game/internal/config"
	"github.com/muscla87/cucu-telegram-game/internal/database"
	"github.com/muscla87/cucu-telegram-game/internal/game"
	"github.com/muscla87/cucu-telegram-game/internal/handlers"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	logger := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rdb *redis.Client
	if cfg.StateBackend == config.BackendRedis || cfg.HistorianEnabled {
		if rdb, err = cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB); err != nil {
			logger.WithError(err).Fatal("unable to connect to redis")
		}
		defer rdb.Close()
	}

	var repo game.StateRepository
	switch cfg.StateBackend {
	case config.BackendPostgres:
		pool, err := database.ConnectDB(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.WithError(err).Fatal("unable to connect to database")
		}
		defer pool.Close()
		if err := database.EnsureSchema(ctx, pool); err != nil {
			logger.WithError(err).Fatal("unable to create schema")
		}
		repo = database.NewGameStateRepository(pool)
	case config.BackendRedis:
		repo = cache.NewStateStore(rdb, cfg.StateTTL)
	default:
		logger.Warn("using in-memory game state, games are lost on restart")
		repo = game.NewMemoryStore()
	}

	var opts []game.ServiceOption
	if cfg.HistorianEnabled {
		opts = append(opts, game.WithPublisher(cache.NewPublisher(rdb, cfg.HistorianQueue)))
	}
	svc := game.NewService(repo, logger, opts...)

	authority := newAuthority(cfg, logger)

	messenger, err := handlers.NewTelegramMessenger(cfg.BotToken)
	if err != nil {
		logger.WithError(err).Fatal("unable to reach the Telegram bot API")
	}
	logger.WithField("bot", messenger.Username()).Info("authorized on Telegram")

	srv := handlers.NewServer(svc, messenger, authority, logger, handlers.Options{
		WebhookSecret:  cfg.WebhookSecret,
		ChatRatePerSec: cfg.ChatRatePerSec,
		ChatRateBurst:  cfg.ChatRateBurst,
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	logger.WithFields(logrus.Fields{"addr": httpServer.Addr, "backend": cfg.StateBackend}).Info("running")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("server exited")
	}
	logger.Info("server stopped")
}

// newAuthority loads the admin signing keys. Without key files a throwaway pair
// is generated and a token for it is logged.
func newAuthority(cfg *config.Config, logger *logrus.Logger) *auth.Authority {
	if cfg.JWTPrivateKeyPath != "" {
		authority, err := auth.NewFromPath(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath, cfg.TokenTTL)
		if err != nil {
			logger.WithError(err).Fatal("unable to load JWT keys")
		}
		return authority
	}

	authority, err := auth.New(cfg.TokenTTL)
	if err != nil {
		logger.WithError(err).Fatal("unable to generate JWT keys")
	}
	token, err := authority.CreateJWT("admin")
	if err != nil {
		logger.WithError(err).Fatal("unable to sign admin token")
	}
	logger.WithField("token", token).Warn("no JWT keys configured, admin token valid until restart")
	return authority
}
