package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/project-tktt/go-vacancies/internal/domain"
	"github.com/redis/go-redis/v9"
)

// DefaultQueue is the Redis list used when no name is configured
const DefaultQueue = "vacancies:records"

// NewBatch wraps records fetched from one source under a fresh batch id
func NewBatch(source domain.JobSource, records []domain.Record) *domain.Batch {
	return &domain.Batch{
		ID:        uuid.NewString(),
		Source:    source,
		Records:   records,
		FetchedAt: time.Now().UTC(),
	}
}

// Publisher pushes record batches to a Redis list
type Publisher struct {
	client    *redis.Client
	queueName string
}

// NewPublisher creates a new queue publisher
func NewPublisher(client *redis.Client, queueName string) *Publisher {
	if queueName == "" {
		queueName = DefaultQueue
	}
	return &Publisher{
		client:    client,
		queueName: queueName,
	}
}

// Publish pushes a single batch to the queue
func (p *Publisher) Publish(ctx context.Context, batch *domain.Batch) error {
	data, err := encode(batch)
	if err != nil {
		return err
	}

	if err := p.client.LPush(ctx, p.queueName, data).Err(); err != nil {
		return fmt.Errorf("lpush: %w", err)
	}

	return nil
}

// PublishBatch pushes several batches in one pipeline
func (p *Publisher) PublishBatch(ctx context.Context, batches []*domain.Batch) error {
	if len(batches) == 0 {
		return nil
	}

	pipe := p.client.Pipeline()
	for _, b := range batches {
		data, err := encode(b)
		if err != nil {
			return err
		}
		pipe.LPush(ctx, p.queueName, data)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("pipeline exec: %w", err)
	}

	return nil
}

// QueueLength returns the current queue length
func (p *Publisher) QueueLength(ctx context.Context) (int64, error) {
	return p.client.LLen(ctx, p.queueName).Result()
}

func encode(batch *domain.Batch) ([]byte, error) {
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}
	data, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("marshal batch %s: %w", batch.ID, err)
	}
	return data, nil
}

func decode(data []byte) (*domain.Batch, error) {
	var batch domain.Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("unmarshal batch: %w", err)
	}
	return &batch, nil
}
