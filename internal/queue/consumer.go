package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/project-tktt/go-vacancies/internal/domain"
	"github.com/project-tktt/go-vacancies/pkg/logging"
	"github.com/redis/go-redis/v9"
)

// Consumer pops record batches from a Redis list
type Consumer struct {
	client    *redis.Client
	queueName string
	timeout   time.Duration
	logger    *logging.Logger
}

// NewConsumer creates a new queue consumer
func NewConsumer(client *redis.Client, queueName string, timeout time.Duration, logger *logging.Logger) *Consumer {
	if queueName == "" {
		queueName = DefaultQueue
	}
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Consumer{
		client:    client,
		queueName: queueName,
		timeout:   timeout,
		logger:    logger.With("queue", queueName),
	}
}

// Consume blocks for one batch.
// Returns nil, nil if the timeout passes with nothing queued.
func (c *Consumer) Consume(ctx context.Context) (*domain.Batch, error) {
	result, err := c.client.BRPop(ctx, c.timeout, c.queueName).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("brpop: %w", err)
	}

	if len(result) < 2 {
		return nil, nil
	}

	return decode([]byte(result[1]))
}

// ConsumeBatch blocks for the first batch with BRPOP, then drains up to
// maxBatch-1 more with RPOP. Malformed payloads are logged and skipped.
func (c *Consumer) ConsumeBatch(ctx context.Context, maxBatch int) ([]*domain.Batch, error) {
	batches := make([]*domain.Batch, 0, maxBatch)

	result, err := c.client.BRPop(ctx, c.timeout, c.queueName).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return batches, nil
		}
		return nil, fmt.Errorf("brpop: %w", err)
	}

	if len(result) >= 2 {
		if b, err := decode([]byte(result[1])); err == nil {
			batches = append(batches, b)
		} else {
			c.logger.Warn("dropping malformed batch", "error", err)
		}
	}

	for i := 1; i < maxBatch; i++ {
		result, err := c.client.RPop(ctx, c.queueName).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				break
			}
			return batches, fmt.Errorf("rpop: %w", err)
		}

		b, err := decode([]byte(result))
		if err != nil {
			c.logger.Warn("dropping malformed batch", "error", err)
			continue
		}
		batches = append(batches, b)
	}

	return batches, nil
}
