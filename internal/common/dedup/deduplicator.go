// Package dedup remembers which records were already published so the crawler
// only forwards new or changed ones. Records are matched by id_vac only.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/project-tktt/go-vacancies/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Deduplicator tracks a content fingerprint per record id in Redis
type Deduplicator struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewDeduplicator creates a new Redis-based deduplicator
func NewDeduplicator(client *redis.Client, prefix string, ttl time.Duration) *Deduplicator {
	if prefix == "" {
		prefix = "vacancies:seen"
	}
	if ttl == 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Deduplicator{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// CheckResult represents the result of checking a record
type CheckResult int

const (
	// ResultNew - record has never been seen
	ResultNew CheckResult = iota
	// ResultUpdated - record was seen with different content
	ResultUpdated
	// ResultUnchanged - record was seen with the same content
	ResultUnchanged
)

func (r CheckResult) String() string {
	switch r {
	case ResultNew:
		return "new"
	case ResultUpdated:
		return "updated"
	default:
		return "unchanged"
	}
}

// CheckRecord compares a record against its stored fingerprint
func (d *Deduplicator) CheckRecord(ctx context.Context, r domain.Record) (CheckResult, error) {
	stored, err := d.client.Get(ctx, d.makeKey(r.IDVac)).Result()
	if errors.Is(err, redis.Nil) {
		return ResultNew, nil
	}
	if err != nil {
		return ResultNew, fmt.Errorf("redis get: %w", err)
	}

	if stored != Fingerprint(r) {
		return ResultUpdated, nil
	}
	return ResultUnchanged, nil
}

// Filter returns the records that are new or changed, with per-result counts
func (d *Deduplicator) Filter(ctx context.Context, records []domain.Record) ([]domain.Record, map[CheckResult]int, error) {
	fresh := make([]domain.Record, 0, len(records))
	counts := make(map[CheckResult]int, 3)

	for _, r := range records {
		result, err := d.CheckRecord(ctx, r)
		if err != nil {
			return nil, nil, err
		}
		counts[result]++
		if result != ResultUnchanged {
			fresh = append(fresh, r)
		}
	}
	return fresh, counts, nil
}

// MarkSeen stores the fingerprints of records in one pipeline
func (d *Deduplicator) MarkSeen(ctx context.Context, records ...domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	pipe := d.client.Pipeline()
	for _, r := range records {
		pipe.Set(ctx, d.makeKey(r.IDVac), Fingerprint(r), d.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Fingerprint hashes the full content of a record
func Fingerprint(r domain.Record) string {
	data, _ := json.Marshal(r)
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:16])
}

// makeKey groups keys by source, e.g. "vacancies:seen:hh:hh_123"
func (d *Deduplicator) makeKey(idVac string) string {
	source, ok := domain.SourceOf(idVac)
	if !ok {
		source = "unknown"
	}
	return fmt.Sprintf("%s:%s:%s", d.prefix, source, idVac)
}
