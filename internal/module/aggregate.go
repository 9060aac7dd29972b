package module

import (
	"context"
	"fmt"

	"github.com/project-tktt/go-vacancies/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Collect fetches from a single provider and normalizes the result
func Collect(ctx context.Context, p Provider) ([]domain.Record, error) {
	if err := p.Fetch(ctx); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", p.Source(), err)
	}
	return p.Normalize(), nil
}

// Aggregate runs Collect on every provider concurrently, one goroutine per provider,
// and returns the records concatenated in provider order. The first transport
// failure cancels the remaining fetches.
func Aggregate(ctx context.Context, providers []Provider) ([]domain.Record, error) {
	results := make([][]domain.Record, len(providers))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range providers {
		g.Go(func() error {
			records, err := Collect(gctx, p)
			if err != nil {
				return err
			}
			results[i] = records
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int
	for _, r := range results {
		total += len(r)
	}
	all := make([]domain.Record, 0, total)
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}
