// cmd/historian/main.go pops action records from the Redis queue and persists them to
// PostgreSQL in batches.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jengryg/doppelkopf-srv-sub002/internal/cache"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/config"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/database"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/engine"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()

	cfg, err := config.LoadHistorian()
	if err != nil {
		logger.Fatalf("historian config: %v", err)
	}
	logger.SetLevel(config.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatalf("migrate: %v", err)
	}

	rdb, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.DB)
	if err != nil {
		logger.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	sink := func(ctx context.Context, recs []engine.ActionRecord) error {
		return database.InsertActions(ctx, pool, recs)
	}
	historian.New(rdb, cfg.Redis.QueueName, cfg.BatchSize, cfg.FlushDelay(), sink, logger).Run(ctx)
}
