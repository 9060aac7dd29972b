package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/project-tktt/go-vacancies/internal/common/cleaner"
	"github.com/project-tktt/go-vacancies/internal/common/storage"
	"github.com/project-tktt/go-vacancies/internal/config"
	"github.com/project-tktt/go-vacancies/internal/module/worker"
	"github.com/project-tktt/go-vacancies/internal/queue"
	"github.com/project-tktt/go-vacancies/pkg/logging"
	"github.com/redis/go-redis/v9"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("starting vacancy worker service", "backend", cfg.Storage.Backend)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("redis connection failed", "error", err)
	}
	logger.Info("redis connected", "addr", cfg.Redis.Addr)

	store, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open storage", "error", err)
	}
	defer store.Close()

	consumer := queue.NewConsumer(rdb, cfg.Redis.RecordQueue, 5*time.Second, logger)
	w := worker.NewWorker(consumer, cleaner.NewCleaner(), store, logger, worker.Config{
		Concurrency: cfg.Worker.Concurrency,
		BatchSize:   cfg.Worker.BatchSize,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("worker error", "error", err)
		}
	}()

	<-sigChan
	logger.Info("shutdown signal received, stopping")
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("graceful shutdown complete")
	case <-time.After(30 * time.Second):
		logger.Warn("shutdown timeout, forcing exit")
	}
}
