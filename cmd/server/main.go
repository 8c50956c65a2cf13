// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jengryg/doppelkopf-srv-sub002/internal/auth"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/cache"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/config"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/database"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/engine"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/handlers"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/storage/memory"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	if err := run(logger); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}

func run(logger *logrus.Logger) error {
	cfg, err := config.LoadServer()
	if err != nil {
		return err
	}
	logger.SetLevel(config.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store handlers.UserStore
	switch cfg.Storage {
	case config.StoragePostgres:
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool); err != nil {
			return err
		}
		store = database.NewStore(pool)
	default:
		store = memory.NewStore()
	}
	logger.WithField("storage", cfg.Storage).Info("storage ready")

	var opts []engine.Option
	if cfg.Redis.Addr != "" {
		rdb, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		opts = append(opts, engine.WithActionLog(cache.NewActionQueue(rdb, cfg.Redis.QueueName)))
		logger.WithField("queue", cfg.Redis.QueueName).Info("publishing actions to redis")
	}

	ttl, err := cfg.TokenTTL()
	if err != nil {
		return err
	}
	sessions, err := auth.NewSessions(ttl)
	if err != nil {
		return err
	}

	srv := handlers.NewServer(engine.New(store, logger, opts...), store, sessions, logger, cfg.DefaultRoundLimit)
	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: srv.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Running on %s", httpSrv.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return httpSrv.Shutdown(shutdownCtx)
}
