package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"prospect_backend/internal/outbox"
	"prospect_backend/internal/scheduler"
	"prospect_backend/platform/config"
	"prospect_backend/platform/db"
	"prospect_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting outbox dispatcher", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	queueClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize queue client", "error", err)
		panic("failed to initialize queue client: " + err.Error())
	}
	defer func() { _ = queueClient.Close() }()

	scheduler.NewOutboxDispatcher(outbox.New(pool), queueClient, log).Run(ctx)
}
