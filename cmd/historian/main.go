// cmd/historian drains the action queue into PostgreSQL.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/muscla87/cucu-telegram-game/internal/cache"
	"github.com/muscla87/cucu-telegram-game/internal/config"
	"github.com/muscla87/cucu-telegram-game/internal/database"
	"github.com/muscla87/cucu-telegram-game/internal/historian"
	_ "github.com/joho/godotenv/autoload"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.ConnectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("unable to connect to database")
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		logger.WithError(err).Fatal("unable to create schema")
	}

	rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.WithError(err).Fatal("unable to connect to redis")
	}
	defer rdb.Close()

	hs := historian.NewService(rdb, database.NewActionRepository(pool), logger, historian.Options{
		Queue:      cfg.HistorianQueue,
		BatchSize:  cfg.HistorianBatch,
		FlushDelay: cfg.HistorianFlush,
	})
	hs.Run(ctx)
	logger.Info("historian shutdown complete")
}
