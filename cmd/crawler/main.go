package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/project-tktt/go-vacancies/internal/common/dedup"
	"github.com/project-tktt/go-vacancies/internal/common/transport"
	"github.com/project-tktt/go-vacancies/internal/config"
	"github.com/project-tktt/go-vacancies/internal/module"
	"github.com/project-tktt/go-vacancies/internal/module/providers"
	"github.com/project-tktt/go-vacancies/internal/queue"
	"github.com/project-tktt/go-vacancies/pkg/logging"
	"github.com/redis/go-redis/v9"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("starting vacancy crawler service", "sources", cfg.Crawler.Sources, "interval", cfg.Crawler.Interval)

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

	tr := transport.NewCollyTransport(transport.Config{
		UserAgent:    cfg.Crawler.UserAgent,
		Timeout:      cfg.Crawler.Timeout,
		RequestDelay: cfg.Crawler.RequestDelay,
	})

	ps, err := providers.FromNames(cfg.Crawler.Sources, cfg, tr, logger)
	if err != nil {
		logger.Fatal("build providers", "error", err)
	}

	query := providers.Query{Text: cfg.Crawler.Query, Count: cfg.Crawler.Count}
	for _, p := range ps {
		if err := providers.ApplyQuery(p, query); err != nil {
			logger.Warn("query partially applied", "source", p.Source(), "error", err)
		}
	}

	s := &scheduler{
		providers: ps,
		dedup:     dedup.NewDeduplicator(rdb, "vacancies:seen", 30*24*time.Hour),
		publisher: queue.NewPublisher(rdb, cfg.Redis.RecordQueue),
		interval:  cfg.Crawler.Interval,
		logger:    logger,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.run(ctx)
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

type scheduler struct {
	providers []module.Provider
	dedup     *dedup.Deduplicator
	publisher *queue.Publisher
	interval  time.Duration
	logger    *logging.Logger
}

// run crawls once on startup, then every interval
func (s *scheduler) run(ctx context.Context) {
	s.runAll(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

// runAll crawls providers one after another; each provider is used by this goroutine only
func (s *scheduler) runAll(ctx context.Context) {
	for _, p := range s.providers {
		select {
		case <-ctx.Done():
			return
		default:
		}

		logger := s.logger.With("source", p.Source())

		records, err := module.Collect(ctx, p)
		if err != nil {
			logger.Error("crawl failed", "error", err)
			continue
		}
		if err := p.Status().Err(); err != nil {
			logger.Warn("crawl produced nothing", "reason", err)
			continue
		}

		fresh, counts, err := s.dedup.Filter(ctx, records)
		if err != nil {
			logger.Error("dedup check failed", "error", err)
			continue
		}

		logger.Info("crawl finished",
			"total", len(records),
			"new", counts[dedup.ResultNew],
			"updated", counts[dedup.ResultUpdated],
			"unchanged", counts[dedup.ResultUnchanged],
		)

		if len(fresh) == 0 {
			continue
		}

		batch := queue.NewBatch(p.Source(), fresh)
		if err := s.publisher.Publish(ctx, batch); err != nil {
			logger.Error("publish failed", "batch", batch.ID, "error", err)
			continue
		}

		if err := s.dedup.MarkSeen(ctx, fresh...); err != nil {
			logger.Error("mark seen failed", "batch", batch.ID, "error", err)
		}
		logger.Debug("batch published", "batch", batch.ID, "records", len(fresh))
	}
}
