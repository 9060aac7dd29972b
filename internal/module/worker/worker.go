// Package worker persists record batches pulled from the queue.
package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/project-tktt/go-vacancies/internal/common/cleaner"
	"github.com/project-tktt/go-vacancies/internal/common/storage"
	"github.com/project-tktt/go-vacancies/internal/domain"
	"github.com/project-tktt/go-vacancies/pkg/logging"
)

// BatchSource yields queued record batches; *queue.Consumer implements it
type BatchSource interface {
	ConsumeBatch(ctx context.Context, maxBatch int) ([]*domain.Batch, error)
}

// Worker cleans queued records and writes them to storage
type Worker struct {
	source  BatchSource
	cleaner *cleaner.Cleaner
	store   storage.Storage
	logger  *logging.Logger

	batchSize   int
	concurrency int
}

// Config holds worker configuration
type Config struct {
	Concurrency int
	BatchSize   int
}

// NewWorker creates a new worker
func NewWorker(source BatchSource, clean *cleaner.Cleaner, store storage.Storage, logger *logging.Logger, cfg Config) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}

	return &Worker{
		source:      source,
		cleaner:     clean,
		store:       store,
		logger:      logger,
		batchSize:   cfg.BatchSize,
		concurrency: cfg.Concurrency,
	}
}

// Run starts the worker pool and blocks until ctx is done
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("starting worker pool", "workers", w.concurrency)

	var wg sync.WaitGroup
	errChan := make(chan error, w.concurrency)

	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			if err := w.runSingle(ctx, workerID); err != nil {
				errChan <- fmt.Errorf("worker %d: %w", workerID, err)
			}
		}(i)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		<-done
		return ctx.Err()
	case err := <-errChan:
		return err
	case <-done:
		return nil
	}
}

func (w *Worker) runSingle(ctx context.Context, workerID int) error {
	logger := w.logger.With("worker", workerID)
	logger.Debug("worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Debug("worker stopping")
			return nil
		default:
		}

		batches, err := w.source.ConsumeBatch(ctx, w.batchSize)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Error("consume failed", "error", err)
			continue
		}

		if len(batches) == 0 {
			continue
		}

		if n, err := w.Process(ctx, batches); err != nil {
			logger.Error("store failed", "batches", len(batches), "error", err)
		} else {
			logger.Info("records stored", "batches", len(batches), "records", n)
		}
	}
}

// Process cleans the records of every batch and stores them in one update
func (w *Worker) Process(ctx context.Context, batches []*domain.Batch) (int, error) {
	var records []domain.Record
	for _, b := range batches {
		for _, r := range b.Records {
			w.cleaner.CleanRecord(&r)
			records = append(records, r)
		}
	}

	if len(records) == 0 {
		return 0, nil
	}

	if err := w.store.Update(ctx, records); err != nil {
		return 0, err
	}
	return len(records), nil
}
